package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidTransition  = errors.New("illegal status transition")

	// Wallet / ledger
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrInvalidAmount       = errors.New("amount must be positive")

	// Purchases & packages
	ErrPackageInactive = errors.New("package is not active")

	// Daily yield
	ErrAlreadyClaimedToday   = errors.New("daily yield already claimed today")
	ErrSubscriptionNotActive = errors.New("subscription is not active")
	ErrSubscriptionExpired   = errors.New("subscription period has ended")

	// Withdrawals
	ErrBelowMinimumWithdrawal = errors.New("amount is below the minimum withdrawal")
	ErrWithdrawalWindowClosed = errors.New("withdrawals are only accepted Mon-Fri during business hours")
	ErrWithdrawalPending      = errors.New("a withdrawal request is already pending today")
	ErrInvalidPIN             = errors.New("withdrawal PIN does not match")

	// Gift codes
	ErrCodeNotFound      = errors.New("gift code not found")
	ErrCodeNotRedeemable = errors.New("gift code is inactive, expired or already redeemed")
)
