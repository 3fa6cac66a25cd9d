package notify

import (
	"context"

	"investment-platform/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*NoopNotifier)(nil)

// NoopNotifier is used when no Telegram token is configured (dev, tests).
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) NotifyAdmin(ctx context.Context, title, body string) error { return nil }
