package repository

import (
	"context"

	"investment-platform/internal/domain/model"
)

type PackageRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Package) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Package, error)
	List(ctx context.Context, tx Tx, activeOnly bool) ([]*model.Package, error)
	// IncrementCounters bumps subscribers and total revenue; it runs in the
	// same transaction as the purchase activation so the counters cannot drift
	// from the subscription rows.
	IncrementCounters(ctx context.Context, tx Tx, id string, revenue float64) error
	// SumRevenue totals total_revenue across the whole catalog.
	SumRevenue(ctx context.Context, tx Tx) (float64, error)
}
