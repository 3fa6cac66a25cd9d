package repository

import (
	"context"
	"time"

	"investment-platform/internal/domain/model"
)

type GiftCodeRepository interface {
	// Insert fails with domain.ErrAlreadyExists when the generated code
	// collides; callers regenerate and retry.
	Insert(ctx context.Context, tx Tx, g *model.GiftCode) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.GiftCode, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.GiftCode, error)

	// Claim atomically marks the code redeemed iff it is active, unredeemed
	// and unexpired (all three predicates in the UPDATE filter). Returns the
	// claimed code or domain.ErrCodeNotRedeemable.
	Claim(ctx context.Context, tx Tx, code, userID string, now time.Time) (*model.GiftCode, error)
}
