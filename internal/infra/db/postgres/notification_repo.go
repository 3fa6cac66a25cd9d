package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Save routes user-facing rows and admin-facing rows to their own tables.
func (r *NotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	if n.UserID != nil {
		_, err = ex.Exec(ctx, `
INSERT INTO user_notifications (id, user_id, type, title, body, read_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			n.ID, *n.UserID, n.Type, n.Title, n.Body, n.ReadAt, n.CreatedAt)
		return err
	}
	_, err = ex.Exec(ctx, `
INSERT INTO admin_notifications (id, type, title, body, read_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		n.ID, n.Type, n.Title, n.Body, n.ReadAt, n.CreatedAt)
	return err
}

func (r *NotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Notification, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `
SELECT id, user_id, type, title, body, read_at, created_at
  FROM user_notifications WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows, true)
}

func (r *NotificationRepo) ListAdmin(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Notification, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `
SELECT id, type, title, body, read_at, created_at
  FROM admin_notifications ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows, false)
}

func collectNotifications(rows pgx.Rows, withUser bool) ([]*model.Notification, error) {
	defer rows.Close()
	var out []*model.Notification
	for rows.Next() {
		var n model.Notification
		var err error
		if withUser {
			err = rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
		} else {
			err = rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
		}
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, tx repository.Tx, id, userID string) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx,
		`UPDATE user_notifications SET read_at=now() WHERE id=$1 AND user_id=$2 AND read_at IS NULL`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) CountUnreadByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_notifications WHERE user_id=$1 AND read_at IS NULL`,
		userID).Scan(&n)
	return n, err
}
