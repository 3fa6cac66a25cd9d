package repository

import (
	"context"

	"investment-platform/internal/domain/model"
)

// LedgerRepository is the append-only wallet history. Entries are never
// updated or deleted.
type LedgerRepository interface {
	Insert(ctx context.Context, tx Tx, e *model.LedgerEntry) error
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.LedgerEntry, error)
	SumByUserAndTypes(ctx context.Context, tx Tx, userID string, types ...model.EntryType) (float64, error)
}
