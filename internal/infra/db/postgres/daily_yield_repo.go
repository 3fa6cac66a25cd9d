package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.DailyYieldRepository = (*DailyYieldRepo)(nil)

type DailyYieldRepo struct {
	pool *pgxpool.Pool
}

func NewDailyYieldRepo(pool *pgxpool.Pool) *DailyYieldRepo {
	return &DailyYieldRepo{pool: pool}
}

// InsertUnique leans on the (subscription_id, yield_date) unique index:
// ON CONFLICT DO NOTHING makes check-and-insert a single atomic statement, so
// two concurrent claims for the same day can never both pass.
func (r *DailyYieldRepo) InsertUnique(ctx context.Context, tx repository.Tx, y *model.DailyYield) (bool, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `
INSERT INTO daily_yields (id, subscription_id, user_id, yield_date, amount, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (subscription_id, yield_date) DO NOTHING`,
		y.ID, y.SubscriptionID, y.UserID, y.YieldDate, y.Amount, y.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DailyYieldRepo) CountPaidBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx, `SELECT COUNT(*) FROM daily_yields WHERE subscription_id=$1 AND amount > 0`, subscriptionID).Scan(&n)
	return n, err
}

func (r *DailyYieldRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.DailyYield, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `
SELECT id, subscription_id, user_id, yield_date, amount, created_at
  FROM daily_yields WHERE user_id=$1 ORDER BY yield_date DESC OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.DailyYield
	for rows.Next() {
		var y model.DailyYield
		if err := rows.Scan(&y.ID, &y.SubscriptionID, &y.UserID, &y.YieldDate, &y.Amount, &y.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &y)
	}
	return out, rows.Err()
}
