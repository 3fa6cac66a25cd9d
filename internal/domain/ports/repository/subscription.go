package repository

import (
	"context"
	"time"

	"investment-platform/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	ListByStatus(ctx context.Context, tx Tx, status model.SubscriptionStatus, offset, limit int) ([]*model.Subscription, error)

	// CountActivatedByUser counts subscriptions that ever started earning
	// (active or completed). Used for the first-purchase referral bonus.
	CountActivatedByUser(ctx context.Context, tx Tx, userID string) (int, error)

	// TransitionStatus performs a guarded status move: the UPDATE carries the
	// expected current status in its WHERE clause and reports whether a row
	// changed, making concurrent admin decisions idempotent.
	TransitionStatus(ctx context.Context, tx Tx, id string, from, to model.SubscriptionStatus, processedBy *string, notes string) (bool, error)

	// RecordYield adds to total earnings and stamps the last yield date.
	RecordYield(ctx context.Context, tx Tx, id string, amount float64, yieldDate time.Time) error

	// ExpireOverduePending moves pending_payment rows whose window lapsed
	// before now to expired; returns how many rows moved.
	ExpireOverduePending(ctx context.Context, tx Tx, now time.Time) (int, error)

	CountActiveByPackage(ctx context.Context, tx Tx) (map[string]int, error)
	CountByStatus(ctx context.Context, tx Tx, status model.SubscriptionStatus) (int, error)
}
