package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAffiliate = "affiliate"
	RoleAdmin     = "admin"
)

const (
	OrderPending   = "pending"
	OrderDelivered = "delivered"
	OrderCanceled  = "canceled"
)

const (
	WithdrawalRequested = "requested"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
)

// Allowed payout methods
const (
	MethodCCP = "ccp"
	MethodRIB = "rib"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Commission    decimal.Decimal `json:"commission"`
	DeliveryPrice decimal.Decimal `json:"delivery_price"`
	ImagePath     string          `json:"image_path,omitempty"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	DeliveryMode  string          `json:"delivery_mode"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Order struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	AffiliateID     int64     `json:"affiliate_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerAddress string    `json:"customer_address"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`

	// Joined from products for listings
	ProductName string          `json:"product_name,omitempty"`
	Commission  decimal.Decimal `json:"commission"`
	Price       decimal.Decimal `json:"price"`
}

type Withdrawal struct {
	ID          int64           `json:"id"`
	AffiliateID int64           `json:"affiliate_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Details     string          `json:"details"`
	Status      string          `json:"status"`
	Bonus       decimal.Decimal `json:"bonus"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WithdrawalRequest is the affiliate-facing payload for a cash-out submission.
type WithdrawalRequest struct {
	AffiliateID int64           `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Details     string          `json:"details"`
}

type BonusAward struct {
	ID          int64           `json:"id"`
	AffiliateID int64           `json:"affiliate_id"`
	ISOYear     int             `json:"iso_year"`
	ISOWeek     int             `json:"iso_week"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Page struct {
	ID      int64  `json:"id"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DashboardStats struct {
	OrdersTotal int `json:"orders_total"`
	Delivered   int `json:"delivered"`
	Pending     int `json:"pending"`
	Canceled    int `json:"canceled"`
}

// Commissions is the affiliate commissions page payload: current balance,
// the bonus that would ride along with the next withdrawal, and history.
type Commissions struct {
	Balance      decimal.Decimal `json:"balance"`
	PendingBonus decimal.Decimal `json:"pending_bonus"`
	WithdrawMin  decimal.Decimal `json:"withdraw_min"`
	Withdrawals  []Withdrawal    `json:"withdrawals"`
}
