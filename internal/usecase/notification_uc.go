package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/adapter"
	"investment-platform/internal/domain/ports/repository"
)

// NotificationUseCase writes inbox rows and pushes admin alerts to the
// external channel. Pushes are best-effort: a Telegram outage must never roll
// back a money-moving transaction, so send failures are logged and swallowed.
type NotificationUseCase interface {
	NotifyUser(ctx context.Context, tx repository.Tx, userID string, t model.NotificationType, title, body string) error
	NotifyAdmin(ctx context.Context, tx repository.Tx, t model.NotificationType, title, body string) error

	ListForUser(ctx context.Context, userID string, offset, limit int) ([]*model.Notification, error)
	ListAdmin(ctx context.Context, offset, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

var _ NotificationUseCase = (*notificationUC)(nil)

type notificationUC struct {
	repo     repository.NotificationRepository
	notifier adapter.AdminNotifier
	log      *zerolog.Logger
}

func NewNotificationUseCase(
	repo repository.NotificationRepository,
	notifier adapter.AdminNotifier,
	logger *zerolog.Logger,
) *notificationUC {
	return &notificationUC{repo: repo, notifier: notifier, log: logger}
}

func (u *notificationUC) NotifyUser(ctx context.Context, tx repository.Tx, userID string, t model.NotificationType, title, body string) error {
	return u.repo.Save(ctx, tx, model.NewUserNotification(userID, t, title, body))
}

func (u *notificationUC) NotifyAdmin(ctx context.Context, tx repository.Tx, t model.NotificationType, title, body string) error {
	if err := u.repo.Save(ctx, tx, model.NewAdminNotification(t, title, body)); err != nil {
		return err
	}
	if err := u.notifier.NotifyAdmin(ctx, title, body); err != nil {
		u.log.Warn().Err(err).Str("title", title).Msg("admin push notification failed")
	}
	return nil
}

func (u *notificationUC) ListForUser(ctx context.Context, userID string, offset, limit int) ([]*model.Notification, error) {
	return u.repo.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

func (u *notificationUC) ListAdmin(ctx context.Context, offset, limit int) ([]*model.Notification, error) {
	return u.repo.ListAdmin(ctx, repository.NoTX, offset, limit)
}

func (u *notificationUC) MarkRead(ctx context.Context, id, userID string) error {
	return u.repo.MarkRead(ctx, repository.NoTX, id, userID)
}

func (u *notificationUC) UnreadCount(ctx context.Context, userID string) (int, error) {
	return u.repo.CountUnreadByUser(ctx, repository.NoTX, userID)
}
