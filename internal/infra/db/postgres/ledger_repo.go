package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func (r *LedgerRepo) Insert(ctx context.Context, tx repository.Tx, e *model.LedgerEntry) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `
INSERT INTO ledger_entries (id, user_id, type, amount, description, balance_after, available_after, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.UserID, e.Type, e.Amount, e.Description, e.BalanceAfter, e.AvailableAfter, e.CreatedAt)
	return err
}

func (r *LedgerRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.LedgerEntry, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	// ULIDs sort by creation time, so ordering by id is the history order.
	rows, err := ex.Query(ctx, `
SELECT id, user_id, type, amount, description, balance_after, available_after, created_at
  FROM ledger_entries WHERE user_id=$1 ORDER BY id DESC OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.Description, &e.BalanceAfter, &e.AvailableAfter, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *LedgerRepo) SumByUserAndTypes(ctx context.Context, tx repository.Tx, userID string, types ...model.EntryType) (float64, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	ts := make([]string, len(types))
	for i, t := range types {
		ts[i] = string(t)
	}
	var sum float64
	err = ex.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id=$1 AND type = ANY($2)`,
		userID, ts).Scan(&sum)
	return sum, err
}
