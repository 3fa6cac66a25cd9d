package repository

import (
	"context"

	"investment-platform/internal/domain/model"
)

// UserRepository persists users together with their wallet columns.
//
// Wallet arithmetic happens inside the store (single UPDATE with guards), so a
// concurrent flow can never observe or write a half-applied balance.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.User, error)
	FindByReferralCode(ctx context.Context, tx Tx, code string) (*model.User, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	CountReferredBy(ctx context.Context, tx Tx, userID string) (int, error)
	SetPINHash(ctx context.Context, tx Tx, userID, pinHash string) error

	// ApplyEntry moves a signed amount through the wallet. When consumeHold is
	// true only Balance changes (the amount was already taken out of Available
	// by Hold). Fails with domain.ErrInsufficientBalance instead of ever going
	// negative. Returns the post-update balance and available figures.
	ApplyEntry(ctx context.Context, tx Tx, userID string, amount float64, consumeHold bool, investedDelta, returnsDelta float64) (balance, available float64, err error)

	// Hold escrows amount out of Available (Balance untouched).
	Hold(ctx context.Context, tx Tx, userID string, amount float64) error
	// ReleaseHold returns a previously held amount to Available.
	ReleaseHold(ctx context.Context, tx Tx, userID string, amount float64) error
}
