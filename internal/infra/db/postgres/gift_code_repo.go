package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.GiftCodeRepository = (*GiftCodeRepo)(nil)

type GiftCodeRepo struct {
	pool *pgxpool.Pool
}

func NewGiftCodeRepo(pool *pgxpool.Pool) *GiftCodeRepo {
	return &GiftCodeRepo{pool: pool}
}

const giftColumns = `
  id, code, amount, is_active, is_redeemed, redeemed_by, redeemed_at, created_at, expires_at`

func (r *GiftCodeRepo) Insert(ctx context.Context, tx repository.Tx, g *model.GiftCode) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `
INSERT INTO gift_codes (id, code, amount, is_active, is_redeemed, redeemed_by, redeemed_at, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		g.ID, g.Code, g.Amount, g.IsActive, g.IsRedeemed, g.RedeemedBy, g.RedeemedAt, g.CreatedAt, g.ExpiresAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func scanGiftCode(row pgx.Row) (*model.GiftCode, error) {
	var g model.GiftCode
	err := row.Scan(&g.ID, &g.Code, &g.Amount, &g.IsActive, &g.IsRedeemed,
		&g.RedeemedBy, &g.RedeemedAt, &g.CreatedAt, &g.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &g, nil
}

func (r *GiftCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.GiftCode, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanGiftCode(ex.QueryRow(ctx, `SELECT`+giftColumns+` FROM gift_codes WHERE code=$1`, code))
}

func (r *GiftCodeRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.GiftCode, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT`+giftColumns+` FROM gift_codes ORDER BY created_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.GiftCode
	for rows.Next() {
		g, err := scanGiftCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Claim carries all three redeemability predicates in the UPDATE filter, so
// exactly one of any number of concurrent redeemers wins the row.
func (r *GiftCodeRepo) Claim(ctx context.Context, tx repository.Tx, code, userID string, now time.Time) (*model.GiftCode, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `
UPDATE gift_codes SET is_redeemed=TRUE, redeemed_by=$2, redeemed_at=$3
 WHERE code=$1 AND is_active AND NOT is_redeemed AND expires_at > $3
RETURNING`+giftColumns, code, userID, now)
	g, err := scanGiftCode(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Distinguish "no such code" from "not redeemable".
			if _, ferr := r.FindByCode(ctx, tx, code); errors.Is(ferr, domain.ErrNotFound) {
				return nil, domain.ErrCodeNotFound
			}
			return nil, domain.ErrCodeNotRedeemable
		}
		return nil, err
	}
	return g, nil
}
