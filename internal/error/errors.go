package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotApproved    = errors.New("account pending approval")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRequest     = errors.New("invalid request format")
	ErrPasswordHashing    = errors.New("failed to hash password")
	ErrWeakPassword       = errors.New("password too short")

	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryExists      = errors.New("category already exists")
	ErrOrderNotFound       = errors.New("order not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrPageNotFound        = errors.New("page not found")

	// Withdrawal validation failures. All of them leave no state behind.
	ErrInvalidMethod     = errors.New("invalid payout method")
	ErrMissingDetails    = errors.New("payout details required")
	ErrInvalidAmount     = errors.New("invalid withdrawal amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBelowMinimum      = errors.New("amount below withdrawal minimum")

	ErrInvalidStatus = errors.New("invalid status")
	ErrStatusFinal   = errors.New("status already final")
)
