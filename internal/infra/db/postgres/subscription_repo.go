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

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subColumns = `
  id, user_id, package_id, package_name, price, duration_days, roi_percent,
  payment_method, status, created_at, start_at, end_at, expires_at,
  total_earnings, last_yield_date, confirmation_message, processed_by, admin_notes`

func (r *SubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, package_id, package_name, price, duration_days, roi_percent,
  payment_method, status, created_at, start_at, end_at, expires_at,
  total_earnings, last_yield_date, confirmation_message, processed_by, admin_notes
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
  status=$9, start_at=$11, end_at=$12, expires_at=$13,
  total_earnings=$14, last_yield_date=$15, confirmation_message=$16,
  processed_by=$17, admin_notes=$18;
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		s.ID, s.UserID, s.PackageID, s.PackageName, s.Price, s.DurationDays, s.ROIPercent,
		s.PaymentMethod, s.Status, s.CreatedAt, s.StartAt, s.EndAt, s.ExpiresAt,
		s.TotalEarnings, s.LastYieldDate, s.ConfirmationMessage, s.ProcessedBy, s.AdminNotes)
	return err
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.PackageID, &s.PackageName, &s.Price, &s.DurationDays, &s.ROIPercent,
		&s.PaymentMethod, &s.Status, &s.CreatedAt, &s.StartAt, &s.EndAt, &s.ExpiresAt,
		&s.TotalEarnings, &s.LastYieldDate, &s.ConfirmationMessage, &s.ProcessedBy, &s.AdminNotes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

func (r *SubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	return scanSubscription(ex.QueryRow(ctx, `SELECT`+subColumns+` FROM subscriptions WHERE id=$1`, id))
}

func (r *SubscriptionRepo) collect(rows pgx.Rows) ([]*model.Subscription, error) {
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT`+subColumns+` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *SubscriptionRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.SubscriptionStatus, offset, limit int) ([]*model.Subscription, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx,
		`SELECT`+subColumns+` FROM subscriptions WHERE status=$1 ORDER BY created_at ASC OFFSET $2 LIMIT $3`,
		status, offset, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *SubscriptionRepo) CountActivatedByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id=$1 AND status IN ('active','completed')`,
		userID).Scan(&n)
	return n, err
}

// TransitionStatus validates the move against the domain transition table
// before touching the database; the WHERE clause then guarantees the row is
// still in `from`, so a racing admin sees zero rows instead of double-applying.
func (r *SubscriptionRepo) TransitionStatus(ctx context.Context, tx repository.Tx, id string, from, to model.SubscriptionStatus, processedBy *string, notes string) (bool, error) {
	if !model.CanTransition(from, to) {
		return false, domain.ErrInvalidTransition
	}
	ex, err := pick(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `
UPDATE subscriptions SET status=$3, processed_by=$4, admin_notes=$5
 WHERE id=$1 AND status=$2`,
		id, from, to, processedBy, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SubscriptionRepo) RecordYield(ctx context.Context, tx repository.Tx, id string, amount float64, yieldDate time.Time) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `
UPDATE subscriptions SET total_earnings = total_earnings + $2, last_yield_date = $3
 WHERE id=$1`, id, amount, yieldDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepo) ExpireOverduePending(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	tag, err := ex.Exec(ctx, `
UPDATE subscriptions SET status='expired'
 WHERE status='pending_payment' AND expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *SubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx, status model.SubscriptionStatus) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE status=$1`, status).Scan(&n)
	return n, err
}

func (r *SubscriptionRepo) CountActiveByPackage(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx,
		`SELECT package_name, COUNT(*) FROM subscriptions WHERE status='active' GROUP BY package_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}
