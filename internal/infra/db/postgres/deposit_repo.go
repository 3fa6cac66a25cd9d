package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.DepositRepository = (*DepositRepo)(nil)

type DepositRepo struct {
	pool *pgxpool.Pool
}

func NewDepositRepo(pool *pgxpool.Pool) *DepositRepo {
	return &DepositRepo{pool: pool}
}

const depositColumns = `
  id, user_id, amount, transaction_message, status, requested_at, processed_at, processed_by, admin_notes`

func (r *DepositRepo) Save(ctx context.Context, tx repository.Tx, d *model.DepositRequest) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `
INSERT INTO deposit_requests (id, user_id, amount, transaction_message, status, requested_at, processed_at, processed_by, admin_notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.UserID, d.Amount, d.TransactionMessage, d.Status, d.RequestedAt, d.ProcessedAt, d.ProcessedBy, d.AdminNotes)
	return err
}

func scanDeposit(row pgx.Row) (*model.DepositRequest, error) {
	var d model.DepositRequest
	err := row.Scan(&d.ID, &d.UserID, &d.Amount, &d.TransactionMessage, &d.Status,
		&d.RequestedAt, &d.ProcessedAt, &d.ProcessedBy, &d.AdminNotes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &d, nil
}

func (r *DepositRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.DepositRequest, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanDeposit(ex.QueryRow(ctx, `SELECT`+depositColumns+` FROM deposit_requests WHERE id=$1`, id))
}

func (r *DepositRepo) collect(rows pgx.Rows) ([]*model.DepositRequest, error) {
	defer rows.Close()
	var out []*model.DepositRequest
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DepositRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.DepositRequest, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT`+depositColumns+` FROM deposit_requests WHERE user_id=$1 ORDER BY requested_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *DepositRepo) ListPending(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.DepositRequest, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx,
		`SELECT`+depositColumns+` FROM deposit_requests WHERE status='pending' ORDER BY requested_at ASC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *DepositRepo) Decide(ctx context.Context, tx repository.Tx, id string, to model.RequestStatus, processedBy string, notes string) (bool, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `
UPDATE deposit_requests SET status=$2, processed_at=now(), processed_by=$3, admin_notes=$4
 WHERE id=$1 AND status='pending'`,
		id, to, processedBy, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DepositRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx, `SELECT COUNT(*) FROM deposit_requests WHERE status='pending'`).Scan(&n)
	return n, err
}
