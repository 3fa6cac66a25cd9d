package repository

import (
	"context"

	"investment-platform/internal/domain/model"
)

type NotificationRepository interface {
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Notification, error)
	ListAdmin(ctx context.Context, tx Tx, offset, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, tx Tx, id, userID string) error
	CountUnreadByUser(ctx context.Context, tx Tx, userID string) (int, error)
}
