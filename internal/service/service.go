package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/khalidbou/affiliate_store/internal/auth"
	apperrors "github.com/khalidbou/affiliate_store/internal/error"
	"github.com/khalidbou/affiliate_store/internal/ledger"
	"github.com/khalidbou/affiliate_store/internal/model"
	"github.com/khalidbou/affiliate_store/internal/repository"
)

// StorefrontService fronts the repository with input validation and the
// commission accounting rules. Handlers hand it already-authenticated
// affiliate and admin identities.
type StorefrontService struct {
	repo   repository.Repository
	reader *ledger.Reader
	logger *zap.SugaredLogger
	limits ledger.Limits
}

func NewStorefrontService(repo repository.Repository, logger *zap.SugaredLogger, limits ledger.Limits) *StorefrontService {
	return &StorefrontService{
		repo:   repo,
		reader: ledger.NewReader(repo, limits.WeeklyBonusUnit),
		logger: logger,
		limits: limits,
	}
}

// ----- accounts -----

func (ss *StorefrontService) Register(ctx context.Context, reg model.Registration) (int64, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Phone = strings.TrimSpace(reg.Phone)
	if reg.Name == "" || reg.Email == "" || reg.Phone == "" || reg.Password == "" {
		return 0, apperrors.ErrInvalidRequest
	}
	if len(reg.Password) < auth.MinPasswordLength {
		return 0, apperrors.ErrWeakPassword
	}
	passwordHash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return 0, apperrors.ErrPasswordHashing
	}
	return ss.repo.CreateAffiliate(ctx, reg, passwordHash)
}

// Login authenticates by email and password. Unapproved affiliates are
// refused even with correct credentials.
func (ss *StorefrontService) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return model.User{}, apperrors.ErrInvalidCredentials
	}
	user, err := ss.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if err := auth.CheckPassword(creds.Password, user.PasswordHash); err != nil {
		return model.User{}, apperrors.ErrInvalidPassword
	}
	if user.Role == model.RoleAffiliate && !user.Approved {
		return model.User{}, apperrors.ErrUserNotApproved
	}
	return user, nil
}

func (ss *StorefrontService) ChangePassword(ctx context.Context, userID int64, current, updated string) error {
	if len(updated) < auth.MinPasswordLength {
		return apperrors.ErrWeakPassword
	}
	user, err := ss.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(current, user.PasswordHash); err != nil {
		return apperrors.ErrInvalidPassword
	}
	passwordHash, err := auth.HashPassword(updated)
	if err != nil {
		return apperrors.ErrPasswordHashing
	}
	return ss.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (ss *StorefrontService) ResetAffiliatePassword(ctx context.Context, affiliateID int64, password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperrors.ErrWeakPassword
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return apperrors.ErrPasswordHashing
	}
	return ss.repo.UpdatePassword(ctx, affiliateID, passwordHash)
}

// UpdateAdminSettings lets the admin change their own login email and,
// optionally, password in one submission.
func (ss *StorefrontService) UpdateAdminSettings(ctx context.Context, adminID int64, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperrors.ErrInvalidRequest
	}
	if password != "" {
		if len(password) < auth.MinPasswordLength {
			return apperrors.ErrWeakPassword
		}
		passwordHash, err := auth.HashPassword(password)
		if err != nil {
			return apperrors.ErrPasswordHashing
		}
		if err := ss.repo.UpdatePassword(ctx, adminID, passwordHash); err != nil {
			return err
		}
	}
	return ss.repo.UpdateEmail(ctx, adminID, email)
}

func (ss *StorefrontService) SetAffiliateApproval(ctx context.Context, affiliateID int64, approved bool) error {
	return ss.repo.SetAffiliateApproval(ctx, affiliateID, approved)
}

func (ss *StorefrontService) ListAffiliates(ctx context.Context) ([]model.User, error) {
	return ss.repo.ListAffiliates(ctx)
}

// ----- catalog -----

func (ss *StorefrontService) CreateCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.ErrInvalidRequest
	}
	return ss.repo.CreateCategory(ctx, name)
}

func (ss *StorefrontService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return ss.repo.ListCategories(ctx)
}

func (ss *StorefrontService) CreateProduct(ctx context.Context, product model.Product) (int64, error) {
	if err := validateProduct(product); err != nil {
		return 0, err
	}
	return ss.repo.CreateProduct(ctx, product)
}

func (ss *StorefrontService) UpdateProduct(ctx context.Context, product model.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return ss.repo.UpdateProduct(ctx, product)
}

func validateProduct(product model.Product) error {
	if strings.TrimSpace(product.Name) == "" ||
		product.Price.LessThanOrEqual(decimal.Zero) ||
		product.Commission.IsNegative() ||
		product.DeliveryPrice.IsNegative() {
		return apperrors.ErrInvalidRequest
	}
	if product.DeliveryMode != "home" && product.DeliveryMode != "office" {
		return apperrors.ErrInvalidRequest
	}
	return nil
}

func (ss *StorefrontService) DeleteProduct(ctx context.Context, id int64) error {
	return ss.repo.DeleteProduct(ctx, id)
}

func (ss *StorefrontService) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	return ss.repo.GetProduct(ctx, id)
}

func (ss *StorefrontService) ListProducts(ctx context.Context, categoryID *int64) ([]model.Product, error) {
	return ss.repo.ListProducts(ctx, categoryID)
}

// ----- orders -----

func (ss *StorefrontService) CreateOrder(ctx context.Context, order model.Order) (int64, error) {
	order.CustomerName = strings.TrimSpace(order.CustomerName)
	order.CustomerPhone = strings.TrimSpace(order.CustomerPhone)
	order.CustomerAddress = strings.TrimSpace(order.CustomerAddress)
	if order.CustomerName == "" || order.CustomerPhone == "" || order.CustomerAddress == "" {
		return 0, apperrors.ErrInvalidRequest
	}
	if _, err := ss.repo.GetProduct(ctx, order.ProductID); err != nil {
		return 0, err
	}
	return ss.repo.CreateOrder(ctx, order)
}

func (ss *StorefrontService) ListOrders(ctx context.Context, affiliateID int64) ([]model.Order, error) {
	return ss.repo.ListOrdersByAffiliate(ctx, affiliateID)
}

// recentOrdersLimit caps the latest-orders panel on the admin dashboard.
const recentOrdersLimit = 20

func (ss *StorefrontService) RecentOrders(ctx context.Context) ([]model.Order, error) {
	return ss.repo.ListRecentOrders(ctx, recentOrdersLimit)
}

func (ss *StorefrontService) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	switch status {
	case model.OrderPending, model.OrderDelivered, model.OrderCanceled:
	default:
		return apperrors.ErrInvalidStatus
	}
	return ss.repo.SetOrderStatus(ctx, orderID, status)
}

// ----- commissions -----

func (ss *StorefrontService) Balance(ctx context.Context, affiliateID int64) (decimal.Decimal, error) {
	return ss.reader.Balance(ctx, affiliateID)
}

func (ss *StorefrontService) PendingWeeklyBonus(ctx context.Context, affiliateID int64, now time.Time) (decimal.Decimal, error) {
	return ss.reader.PendingWeeklyBonus(ctx, affiliateID, now)
}

// Commissions assembles the affiliate commissions view.
func (ss *StorefrontService) Commissions(ctx context.Context, affiliateID int64, now time.Time) (model.Commissions, error) {
	balance, err := ss.reader.Balance(ctx, affiliateID)
	if err != nil {
		return model.Commissions{}, err
	}
	pending, err := ss.reader.PendingWeeklyBonus(ctx, affiliateID, now)
	if err != nil {
		return model.Commissions{}, err
	}
	withdrawals, err := ss.repo.ListWithdrawalsByAffiliate(ctx, affiliateID)
	if err != nil {
		return model.Commissions{}, err
	}
	return model.Commissions{
		Balance:      balance,
		PendingBonus: pending,
		WithdrawMin:  ss.limits.WithdrawMin,
		Withdrawals:  withdrawals,
	}, nil
}

// SubmitWithdrawal checks the request shape here; the balance-dependent
// checks run inside the storage transaction where they are race-free.
func (ss *StorefrontService) SubmitWithdrawal(ctx context.Context, req model.WithdrawalRequest, now time.Time) (model.Withdrawal, error) {
	if req.Method != model.MethodCCP && req.Method != model.MethodRIB {
		return model.Withdrawal{}, apperrors.ErrInvalidMethod
	}
	req.Details = strings.TrimSpace(req.Details)
	if req.Details == "" {
		return model.Withdrawal{}, apperrors.ErrMissingDetails
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return model.Withdrawal{}, apperrors.ErrInvalidAmount
	}

	withdrawal, err := ss.repo.SubmitWithdrawal(ctx, req, now)
	if err != nil {
		return model.Withdrawal{}, err
	}
	ss.logger.Infow(
		"Withdrawal requested",
		"affiliate", req.AffiliateID,
		"amount", req.Amount.String(),
		"bonus", withdrawal.Bonus.String(),
	)
	return withdrawal, nil
}

func (ss *StorefrontService) SetWithdrawalStatus(ctx context.Context, withdrawalID int64, status string) error {
	if status != model.WithdrawalApproved && status != model.WithdrawalRejected {
		return apperrors.ErrInvalidStatus
	}
	return ss.repo.SetWithdrawalStatus(ctx, withdrawalID, status)
}

func (ss *StorefrontService) ListPendingWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	return ss.repo.ListPendingWithdrawals(ctx)
}

// ----- pages and stats -----

func (ss *StorefrontService) GetPage(ctx context.Context, slug string) (model.Page, error) {
	return ss.repo.GetPage(ctx, slug)
}

func (ss *StorefrontService) SavePage(ctx context.Context, page model.Page) error {
	if strings.TrimSpace(page.Title) == "" {
		return apperrors.ErrInvalidRequest
	}
	switch page.Slug {
	case "privacy", "about", "contact":
	default:
		return apperrors.ErrInvalidRequest
	}
	return ss.repo.UpsertPage(ctx, page)
}

func (ss *StorefrontService) ListPages(ctx context.Context) ([]model.Page, error) {
	return ss.repo.ListPages(ctx)
}

func (ss *StorefrontService) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	return ss.repo.DashboardStats(ctx)
}
