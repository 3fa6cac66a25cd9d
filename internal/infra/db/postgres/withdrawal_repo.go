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

var _ repository.WithdrawalRepository = (*WithdrawalRepo)(nil)

type WithdrawalRepo struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewWithdrawalRepo needs the platform timezone to derive the requested_on
// calendar day behind the one-pending-per-day partial unique index.
func NewWithdrawalRepo(pool *pgxpool.Pool, loc *time.Location) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool, loc: loc}
}

const withdrawalColumns = `
  id, user_id, amount, phone_number, status, requested_at, processed_at, processed_by, admin_notes`

func (r *WithdrawalRepo) Save(ctx context.Context, tx repository.Tx, w *model.WithdrawalRequest) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	day := w.RequestedAt.In(r.loc).Format("2006-01-02")
	_, err = ex.Exec(ctx, `
INSERT INTO withdrawal_requests (id, user_id, amount, phone_number, status, requested_at, requested_on, processed_at, processed_by, admin_notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		w.ID, w.UserID, w.Amount, w.PhoneNumber, w.Status, w.RequestedAt, day, w.ProcessedAt, w.ProcessedBy, w.AdminNotes)
	if isUniqueViolation(err) {
		return domain.ErrWithdrawalPending
	}
	return err
}

func scanWithdrawal(row pgx.Row) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.PhoneNumber, &w.Status,
		&w.RequestedAt, &w.ProcessedAt, &w.ProcessedBy, &w.AdminNotes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &w, nil
}

func (r *WithdrawalRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.WithdrawalRequest, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanWithdrawal(ex.QueryRow(ctx, `SELECT`+withdrawalColumns+` FROM withdrawal_requests WHERE id=$1`, id))
}

func (r *WithdrawalRepo) collect(rows pgx.Rows) ([]*model.WithdrawalRequest, error) {
	defer rows.Close()
	var out []*model.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WithdrawalRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.WithdrawalRequest, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT`+withdrawalColumns+` FROM withdrawal_requests WHERE user_id=$1 ORDER BY requested_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *WithdrawalRepo) ListPending(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.WithdrawalRequest, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx,
		`SELECT`+withdrawalColumns+` FROM withdrawal_requests WHERE status='pending' ORDER BY requested_at ASC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Decide flips the request exactly once; a second admin racing the first
// changes zero rows and gets false back.
func (r *WithdrawalRepo) Decide(ctx context.Context, tx repository.Tx, id string, to model.RequestStatus, processedBy string, notes string) (bool, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `
UPDATE withdrawal_requests SET status=$2, processed_at=now(), processed_by=$3, admin_notes=$4
 WHERE id=$1 AND status='pending'`,
		id, to, processedBy, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *WithdrawalRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests WHERE status='pending'`).Scan(&n)
	return n, err
}
