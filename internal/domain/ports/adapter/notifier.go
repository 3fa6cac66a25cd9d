package adapter

import "context"

// AdminNotifier pushes out-of-band alerts (new pending deposits, withdrawals,
// purchase confirmations) to the operations channel. Implementations must be
// safe to call concurrently; failures are logged, never propagated into the
// business transaction.
type AdminNotifier interface {
	NotifyAdmin(ctx context.Context, title, body string) error
}
