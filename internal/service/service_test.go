package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/khalidbou/affiliate_store/internal/error"
	"github.com/khalidbou/affiliate_store/internal/ledger"
	"github.com/khalidbou/affiliate_store/internal/model"
	"github.com/khalidbou/affiliate_store/internal/repository"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newTestService(t *testing.T) (*StorefrontService, *repository.MemStorage) {
	t.Helper()
	limits := ledger.Limits{
		WithdrawMin:     dec("5000"),
		WeeklyBonusUnit: dec("1000"),
	}
	storage := repository.NewMemStorage(limits)
	return NewStorefrontService(storage, zap.NewNop().Sugar(), limits), storage
}

func registerApproved(t *testing.T, store *StorefrontService, storage *repository.MemStorage, email string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := store.Register(ctx, model.Registration{
		Name:     "Samira",
		Email:    email,
		Phone:    "0770000000",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NoError(t, storage.SetAffiliateApproval(ctx, id, true))
	return id
}

func seedDelivered(t *testing.T, store *StorefrontService, storage *repository.MemStorage, affiliateID int64, commission string, count int) {
	t.Helper()
	ctx := context.Background()
	productID, err := store.CreateProduct(ctx, model.Product{
		Name:          "Mixer",
		Price:         dec("7000"),
		Commission:    dec(commission),
		DeliveryPrice: dec("400"),
		DeliveryMode:  "home",
	})
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		orderID, err := store.CreateOrder(ctx, model.Order{
			ProductID:       productID,
			AffiliateID:     affiliateID,
			CustomerName:    "Customer",
			CustomerPhone:   "0560000000",
			CustomerAddress: "Rue de la Liberté",
		})
		require.NoError(t, err)
		require.NoError(t, store.SetOrderStatus(ctx, orderID, model.OrderDelivered))
	}
}

func TestRegisterAndLogin(t *testing.T) {
	store, storage := newTestService(t)
	ctx := context.Background()

	id, err := store.Register(ctx, model.Registration{
		Name:     "Samira",
		Email:    "Samira@Example.com",
		Phone:    "0770000000",
		Password: "secret123",
	})
	require.NoError(t, err)

	// Not approved yet
	_, err = store.Login(ctx, model.Credentials{Email: "samira@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotApproved)

	require.NoError(t, storage.SetAffiliateApproval(ctx, id, true))

	user, err := store.Login(ctx, model.Credentials{Email: "samira@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAffiliate, user.Role)

	_, err = store.Login(ctx, model.Credentials{Email: "samira@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	// Duplicate registration
	_, err = store.Register(ctx, model.Registration{
		Name:     "Samira",
		Email:    "samira@example.com",
		Phone:    "0770000000",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	store, _ := newTestService(t)
	ctx := context.Background()

	_, err := store.Register(ctx, model.Registration{Email: "x@y.dz", Phone: "05", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = store.Register(ctx, model.Registration{Name: "A", Email: "x@y.dz", Phone: "05", Password: "short"})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
}

func TestSubmitWithdrawalInputValidation(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	seedDelivered(t, store, storage, affiliateID, "800", 2)
	now := time.Now().UTC()

	tests := []struct {
		name     string
		req      model.WithdrawalRequest
		expected error
	}{
		{
			name:     "unsupported method",
			req:      model.WithdrawalRequest{AffiliateID: affiliateID, Amount: dec("100"), Method: "paypal", Details: "x"},
			expected: apperrors.ErrInvalidMethod,
		},
		{
			name:     "missing details",
			req:      model.WithdrawalRequest{AffiliateID: affiliateID, Amount: dec("100"), Method: model.MethodCCP, Details: "   "},
			expected: apperrors.ErrMissingDetails,
		},
		{
			name:     "zero amount",
			req:      model.WithdrawalRequest{AffiliateID: affiliateID, Amount: dec("0"), Method: model.MethodCCP, Details: "x"},
			expected: apperrors.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SubmitWithdrawal(context.Background(), tt.req, now)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	// Nothing persisted by the rejected attempts
	commissions, err := store.Commissions(context.Background(), affiliateID, now)
	require.NoError(t, err)
	assert.Empty(t, commissions.Withdrawals)
}

func TestSubmitWithdrawalFullBalanceUnderMinimum(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	seedDelivered(t, store, storage, affiliateID, "800", 2)

	withdrawal, err := store.SubmitWithdrawal(context.Background(), model.WithdrawalRequest{
		AffiliateID: affiliateID,
		Amount:      dec("1600"),
		Method:      model.MethodCCP,
		Details:     "ccp 99",
	}, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, withdrawal.Bonus.IsZero())

	balance, err := store.Balance(context.Background(), affiliateID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestCommissionsView(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	seedDelivered(t, store, storage, affiliateID, "100", 10)
	now := time.Now().UTC()

	commissions, err := store.Commissions(context.Background(), affiliateID, now)
	require.NoError(t, err)
	assert.True(t, commissions.Balance.Equal(dec("1000")))
	assert.True(t, commissions.PendingBonus.Equal(dec("1000")))
	assert.True(t, commissions.WithdrawMin.Equal(dec("5000")))
}

func TestSetWithdrawalStatusValidation(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	seedDelivered(t, store, storage, affiliateID, "6000", 1)
	ctx := context.Background()

	withdrawal, err := store.SubmitWithdrawal(ctx, model.WithdrawalRequest{
		AffiliateID: affiliateID,
		Amount:      dec("6000"),
		Method:      model.MethodRIB,
		Details:     "rib 7",
	}, time.Now().UTC())
	require.NoError(t, err)

	assert.ErrorIs(t, store.SetWithdrawalStatus(ctx, withdrawal.ID, "pending"), apperrors.ErrInvalidStatus)
	require.NoError(t, store.SetWithdrawalStatus(ctx, withdrawal.ID, model.WithdrawalApproved))
	assert.ErrorIs(t, store.SetWithdrawalStatus(ctx, withdrawal.ID, model.WithdrawalRejected), apperrors.ErrStatusFinal)
}

func TestSetOrderStatusValidation(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	seedDelivered(t, store, storage, affiliateID, "500", 1)
	ctx := context.Background()

	orders, err := store.ListOrders(ctx, affiliateID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	assert.ErrorIs(t, store.SetOrderStatus(ctx, orders[0].ID, "shipped"), apperrors.ErrInvalidStatus)
	require.NoError(t, store.SetOrderStatus(ctx, orders[0].ID, model.OrderCanceled))
}

func TestCreateOrderValidation(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	ctx := context.Background()

	productID, err := store.CreateProduct(ctx, model.Product{
		Name:          "Mixer",
		Price:         dec("7000"),
		Commission:    dec("500"),
		DeliveryPrice: dec("400"),
		DeliveryMode:  "home",
	})
	require.NoError(t, err)

	_, err = store.CreateOrder(ctx, model.Order{ProductID: productID, AffiliateID: affiliateID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = store.CreateOrder(ctx, model.Order{
		ProductID:       productID + 99,
		AffiliateID:     affiliateID,
		CustomerName:    "C",
		CustomerPhone:   "05",
		CustomerAddress: "Alger",
	})
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
}

func TestRecentOrders(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	seedDelivered(t, store, storage, affiliateID, "500", 3)

	orders, err := store.RecentOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	// Newest first, with the product fields joined in
	assert.Greater(t, orders[0].ID, orders[1].ID)
	assert.Equal(t, "Mixer", orders[0].ProductName)
}

func TestUpdateAdminSettings(t *testing.T) {
	store, storage := newTestService(t)
	ctx := context.Background()

	require.NoError(t, storage.EnsureAdmin(ctx, "hash"))
	admin, err := storage.GetUserByEmail(ctx, "admin@local")
	require.NoError(t, err)

	registerApproved(t, store, storage, "taken@b.dz")

	assert.ErrorIs(t, store.UpdateAdminSettings(ctx, admin.ID, "  ", ""), apperrors.ErrInvalidRequest)
	assert.ErrorIs(t, store.UpdateAdminSettings(ctx, admin.ID, "new@admin.dz", "short"), apperrors.ErrWeakPassword)
	assert.ErrorIs(t, store.UpdateAdminSettings(ctx, admin.ID, "taken@b.dz", ""), apperrors.ErrUserAlreadyExists)

	require.NoError(t, store.UpdateAdminSettings(ctx, admin.ID, "New@Admin.dz", "adminsecret"))

	user, err := store.Login(ctx, model.Credentials{Email: "new@admin.dz", Password: "adminsecret"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

func TestChangePassword(t *testing.T) {
	store, storage := newTestService(t)
	affiliateID := registerApproved(t, store, storage, "a@b.dz")
	ctx := context.Background()

	assert.ErrorIs(t, store.ChangePassword(ctx, affiliateID, "secret123", "short"), apperrors.ErrWeakPassword)
	assert.ErrorIs(t, store.ChangePassword(ctx, affiliateID, "wrong", "newsecret"), apperrors.ErrInvalidPassword)
	require.NoError(t, store.ChangePassword(ctx, affiliateID, "secret123", "newsecret"))

	_, err := store.Login(ctx, model.Credentials{Email: "a@b.dz", Password: "newsecret"})
	require.NoError(t, err)
}
