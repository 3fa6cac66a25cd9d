package repository

import (
	"context"

	"investment-platform/internal/domain/model"
)

type DailyYieldRepository interface {
	// InsertUnique inserts the yield marker and reports whether the row was
	// actually written. A false return means the (subscription, day) pair
	// already exists, i.e. the claim was already paid.
	InsertUnique(ctx context.Context, tx Tx, y *model.DailyYield) (bool, error)
	// CountPaidBySubscription counts paid-out days; the zero-amount placeholder
	// written on activation day is excluded.
	CountPaidBySubscription(ctx context.Context, tx Tx, subscriptionID string) (int, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.DailyYield, error)
}
