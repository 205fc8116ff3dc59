package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khalidbou/affiliate_store/internal/model"
)

type Repository interface {
	// Users
	CreateAffiliate(ctx context.Context, reg model.Registration, passwordHash string) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	ListAffiliates(ctx context.Context) ([]model.User, error)
	SetAffiliateApproval(ctx context.Context, id int64, approved bool) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	EnsureAdmin(ctx context.Context, passwordHash string) error

	// Catalog
	CreateCategory(ctx context.Context, name string) (int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateProduct(ctx context.Context, product model.Product) (int64, error)
	UpdateProduct(ctx context.Context, product model.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (model.Product, error)
	ListProducts(ctx context.Context, categoryID *int64) ([]model.Product, error)

	// Orders
	CreateOrder(ctx context.Context, order model.Order) (int64, error)
	ListOrdersByAffiliate(ctx context.Context, affiliateID int64) ([]model.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]model.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status string) error

	// Ledger reads (ledger.Source)
	DeliveredCommissionTotal(ctx context.Context, affiliateID int64) (decimal.Decimal, error)
	ActiveWithdrawalTotal(ctx context.Context, affiliateID int64) (decimal.Decimal, error)
	CountDeliveredSince(ctx context.Context, affiliateID int64, since time.Time) (int, error)
	HasBonusAward(ctx context.Context, affiliateID int64, isoYear, isoWeek int) (bool, error)

	// Withdrawals
	SubmitWithdrawal(ctx context.Context, req model.WithdrawalRequest, now time.Time) (model.Withdrawal, error)
	ListWithdrawalsByAffiliate(ctx context.Context, affiliateID int64) ([]model.Withdrawal, error)
	ListPendingWithdrawals(ctx context.Context) ([]model.Withdrawal, error)
	SetWithdrawalStatus(ctx context.Context, id int64, status string) error

	// Pages and stats
	GetPage(ctx context.Context, slug string) (model.Page, error)
	UpsertPage(ctx context.Context, page model.Page) error
	ListPages(ctx context.Context) ([]model.Page, error)
	DashboardStats(ctx context.Context) (model.DashboardStats, error)

	Ping(ctx context.Context) error
	Close() error
}
