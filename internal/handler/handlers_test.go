package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khalidbou/affiliate_store/internal/config"
	"github.com/khalidbou/affiliate_store/internal/ledger"
	"github.com/khalidbou/affiliate_store/internal/model"
	"github.com/khalidbou/affiliate_store/internal/repository"
	"github.com/khalidbou/affiliate_store/internal/service"
)

const testSecret = "test-secret"

type testEnv struct {
	server  *httptest.Server
	store   *service.StorefrontService
	storage *repository.MemStorage
	auth    *jwtauth.JWTAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	limits := ledger.Limits{
		WithdrawMin:     decimal.NewFromInt(5000),
		WeeklyBonusUnit: decimal.NewFromInt(1000),
	}
	storage := repository.NewMemStorage(limits)
	store := service.NewStorefrontService(storage, zap.NewNop().Sugar(), limits)
	systemConfig := &config.SystemConfig{
		JwtSecretKey: testSecret,
		JwtAlgorithm: "HS256",
	}
	server := httptest.NewServer(Router(zap.NewNop().Sugar(), systemConfig, store))
	t.Cleanup(server.Close)
	return &testEnv{
		server:  server,
		store:   store,
		storage: storage,
		auth:    jwtauth.New("HS256", []byte(testSecret), nil),
	}
}

func (env *testEnv) token(t *testing.T, userID int64, role string) string {
	t.Helper()
	_, tokenString, err := env.auth.Encode(map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})
	require.NoError(t, err)
	return tokenString
}

func (env *testEnv) request(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, env.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (env *testEnv) newAffiliate(t *testing.T, email string) (int64, string) {
	t.Helper()
	resp := env.request(t, http.MethodPost, "/api/register", "", map[string]string{
		"name":     "Karim",
		"email":    email,
		"phone":    "0770000000",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NoError(t, env.storage.SetAffiliateApproval(context.Background(), created.ID, true))
	return created.ID, env.token(t, created.ID, model.RoleAffiliate)
}

func (env *testEnv) seedDelivered(t *testing.T, affiliateID int64, commission string, count int) int64 {
	t.Helper()
	ctx := context.Background()
	productID, err := env.store.CreateProduct(ctx, model.Product{
		Name:          "Blender",
		Price:         decimal.NewFromInt(9000),
		Commission:    decimal.RequireFromString(commission),
		DeliveryPrice: decimal.NewFromInt(400),
		DeliveryMode:  "home",
	})
	require.NoError(t, err)
	for i := 0; i < count; i++ {
		orderID, err := env.store.CreateOrder(ctx, model.Order{
			ProductID:       productID,
			AffiliateID:     affiliateID,
			CustomerName:    "Customer",
			CustomerPhone:   "0550000000",
			CustomerAddress: "Oran",
		})
		require.NoError(t, err)
		require.NoError(t, env.store.SetOrderStatus(ctx, orderID, model.OrderDelivered))
	}
	return productID
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/register", "", map[string]string{
		"name":     "Karim",
		"email":    "karim@example.com",
		"phone":    "0770000000",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	creds := map[string]string{"email": "karim@example.com", "password": "secret123"}
	resp = env.request(t, http.MethodPost, "/api/login", "", creds)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, env.storage.SetAffiliateApproval(context.Background(), created.ID, true))

	resp = env.request(t, http.MethodPost, "/api/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, model.RoleAffiliate, session.Role)

	resp = env.request(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "karim@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Duplicate email
	resp = env.request(t, http.MethodPost, "/api/register", "", map[string]string{
		"name":     "Karim",
		"email":    "karim@example.com",
		"phone":    "0770000000",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthGates(t *testing.T) {
	env := newTestEnv(t)
	_, affiliateToken := env.newAffiliate(t, "a@b.dz")

	resp := env.request(t, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Affiliate tokens must not open admin routes
	resp = env.request(t, http.MethodGet, "/api/admin/dashboard", affiliateToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken := env.token(t, 999, model.RoleAdmin)
	resp = env.request(t, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitWithdrawalEndpoint(t *testing.T) {
	env := newTestEnv(t)
	affiliateID, token := env.newAffiliate(t, "a@b.dz")
	env.seedDelivered(t, affiliateID, "600", 10)

	resp := env.request(t, http.MethodPost, "/api/withdrawals", token, map[string]any{
		"amount": "1000", "method": "paypal", "details": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Balance is 6000 earned plus a 1000 pending bonus; 20000 cannot be covered
	resp = env.request(t, http.MethodPost, "/api/withdrawals", token, map[string]any{
		"amount": "20000", "method": "ccp", "details": "ccp 123",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/withdrawals", token, map[string]any{
		"amount": "6000", "method": "ccp", "details": "ccp 123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		ID           int64  `json:"id"`
		BonusAwarded string `json:"bonus_awarded"`
		Status       string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, model.WithdrawalRequested, result.Status)
	assert.Equal(t, "1000", result.BonusAwarded)

	// Everything is tied up now
	resp = env.request(t, http.MethodPost, "/api/withdrawals", token, map[string]any{
		"amount": "100", "method": "ccp", "details": "ccp 123",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestWithdrawalApprovalEndpoint(t *testing.T) {
	env := newTestEnv(t)
	affiliateID, token := env.newAffiliate(t, "a@b.dz")
	env.seedDelivered(t, affiliateID, "6000", 1)
	adminToken := env.token(t, 999, model.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/withdrawals", token, map[string]any{
		"amount": "6000", "method": "rib", "details": "rib 7",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	statusPath := fmt.Sprintf("/api/admin/withdrawals/%d/status", result.ID)
	resp = env.request(t, http.MethodPost, statusPath, adminToken, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, statusPath, adminToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPost, statusPath, adminToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCommissionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	affiliateID, token := env.newAffiliate(t, "a@b.dz")
	env.seedDelivered(t, affiliateID, "100", 10)

	resp := env.request(t, http.MethodGet, "/api/commissions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var commissions struct {
		Balance      string `json:"balance"`
		PendingBonus string `json:"pending_bonus"`
		WithdrawMin  string `json:"withdraw_min"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&commissions))
	assert.Equal(t, "1000", commissions.Balance)
	assert.Equal(t, "1000", commissions.PendingBonus)
	assert.Equal(t, "5000", commissions.WithdrawMin)
}

func TestOrderEndpoints(t *testing.T) {
	env := newTestEnv(t)
	affiliateID, token := env.newAffiliate(t, "a@b.dz")
	productID := env.seedDelivered(t, affiliateID, "500", 0)

	resp := env.request(t, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/orders", token, map[string]any{
		"product_id":       productID,
		"customer_name":    "Customer",
		"customer_phone":   "0550000000",
		"customer_address": "Oran",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/orders", token, map[string]any{
		"product_id":    productID,
		"customer_name": "Customer",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []model.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Len(t, orders, 1)
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	affiliateID, token := env.newAffiliate(t, "a@b.dz")
	env.seedDelivered(t, affiliateID, "6000", 2)
	adminToken := env.token(t, 999, model.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/withdrawals", token, map[string]any{
		"amount": "6000", "method": "ccp", "details": "ccp 1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dashboard struct {
		Stats              model.DashboardStats `json:"stats"`
		PendingWithdrawals []model.Withdrawal   `json:"pending_withdrawals"`
		RecentOrders       []model.Order        `json:"recent_orders"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dashboard))
	assert.Equal(t, 2, dashboard.Stats.OrdersTotal)
	assert.Equal(t, 2, dashboard.Stats.Delivered)
	assert.Len(t, dashboard.PendingWithdrawals, 1)
	require.Len(t, dashboard.RecentOrders, 2)
	assert.Equal(t, "Blender", dashboard.RecentOrders[0].ProductName)
}

func TestAdminSettingsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.newAffiliate(t, "taken@b.dz")

	ctx := context.Background()
	require.NoError(t, env.storage.EnsureAdmin(ctx, "hash"))
	admin, err := env.storage.GetUserByEmail(ctx, "admin@local")
	require.NoError(t, err)
	adminToken := env.token(t, admin.ID, model.RoleAdmin)

	resp := env.request(t, http.MethodPost, "/api/admin/settings", adminToken, map[string]string{
		"email": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/admin/settings", adminToken, map[string]string{
		"email": "taken@b.dz",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/admin/settings", adminToken, map[string]string{
		"email": "boss@store.dz", "password": "adminsecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "boss@store.dz", "password": "adminsecret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPagesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, 999, model.RoleAdmin)

	resp := env.request(t, http.MethodGet, "/api/pages/privacy", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(t, http.MethodPut, "/api/admin/pages/privacy", adminToken, map[string]string{
		"title":   "Privacy policy",
		"content": "We keep customer data to fulfil orders.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPut, "/api/admin/pages/banner", adminToken, map[string]string{
		"title": "Nope", "content": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/pages/privacy", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page model.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "Privacy policy", page.Title)
}
