// Package ledger holds the commission accounting rules: balance
// composition, the weekly volume bonus, and withdrawal amount checks.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/khalidbou/affiliate_store/internal/error"
)

// OrdersPerBonus is the delivered-order multiple that earns one bonus unit.
const OrdersPerBonus = 10

// BonusWindow is the trailing lookback used when counting delivered orders
// for the bonus. The count uses this sliding window while the award-once
// gate in PendingWeeklyBonus is keyed on the ISO calendar week of "now".
const BonusWindow = 7 * 24 * time.Hour

// Limits carries the configured money thresholds storage needs at commit time.
type Limits struct {
	WithdrawMin     decimal.Decimal
	WeeklyBonusUnit decimal.Decimal
}

// ISOYearWeek returns the ISO 8601 year and week of t (Monday-start weeks).
func ISOYearWeek(t time.Time) (int, int) {
	return t.ISOWeek()
}

// BonusCandidate computes the unclaimed bonus for a delivered-order count:
// one unit per full multiple of OrdersPerBonus.
func BonusCandidate(deliveredCount int, unit decimal.Decimal) decimal.Decimal {
	if deliveredCount < OrdersPerBonus {
		return decimal.Zero
	}
	return unit.Mul(decimal.NewFromInt(int64(deliveredCount / OrdersPerBonus)))
}

// ValidateAmount applies the withdrawal amount rules against the total
// available funds (balance plus pending bonus). The minimum floor is waived
// when the affiliate's entire available total sits below it, so small
// balances can still be cashed out whole.
func ValidateAmount(amount, total, minimum decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.ErrInvalidAmount
	}
	if amount.GreaterThan(total) {
		return apperrors.ErrInsufficientFunds
	}
	if amount.LessThan(minimum) && total.GreaterThanOrEqual(minimum) {
		return apperrors.ErrBelowMinimum
	}
	return nil
}

// Source is the slice of storage the reader needs.
type Source interface {
	DeliveredCommissionTotal(ctx context.Context, affiliateID int64) (decimal.Decimal, error)
	ActiveWithdrawalTotal(ctx context.Context, affiliateID int64) (decimal.Decimal, error)
	CountDeliveredSince(ctx context.Context, affiliateID int64, since time.Time) (int, error)
	HasBonusAward(ctx context.Context, affiliateID int64, isoYear, isoWeek int) (bool, error)
}

// Reader computes an affiliate's withdrawable balance and pending weekly
// bonus from historical order and withdrawal records.
type Reader struct {
	src  Source
	unit decimal.Decimal
}

func NewReader(src Source, bonusUnit decimal.Decimal) *Reader {
	return &Reader{src: src, unit: bonusUnit}
}

// Balance is delivered commission earned minus everything tied up in
// requested or approved withdrawals (cash amount plus awarded bonus).
// Rejected withdrawals are ignored. The result can go negative when an
// awarded bonus was paid out and the backing orders later shrink.
func (r *Reader) Balance(ctx context.Context, affiliateID int64) (decimal.Decimal, error) {
	earned, err := r.src.DeliveredCommissionTotal(ctx, affiliateID)
	if err != nil {
		return decimal.Zero, err
	}
	spent, err := r.src.ActiveWithdrawalTotal(ctx, affiliateID)
	if err != nil {
		return decimal.Zero, err
	}
	return earned.Sub(spent), nil
}

// PendingWeeklyBonus returns the bonus the affiliate would collect with the
// next withdrawal: one WeeklyBonusUnit per ten delivered orders inside the
// trailing window, zeroed if an award already exists for the current ISO
// calendar week.
func (r *Reader) PendingWeeklyBonus(ctx context.Context, affiliateID int64, now time.Time) (decimal.Decimal, error) {
	count, err := r.src.CountDeliveredSince(ctx, affiliateID, now.Add(-BonusWindow))
	if err != nil {
		return decimal.Zero, err
	}
	candidate := BonusCandidate(count, r.unit)
	year, week := ISOYearWeek(now)
	claimed, err := r.src.HasBonusAward(ctx, affiliateID, year, week)
	if err != nil {
		return decimal.Zero, err
	}
	if claimed {
		return decimal.Zero, nil
	}
	return candidate, nil
}
