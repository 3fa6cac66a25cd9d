package repository

import (
	"context"

	"investment-platform/internal/domain/model"
)

type WithdrawalRepository interface {
	// Save inserts the request; the store enforces one request per user per
	// calendar day via a unique index and maps violations to
	// domain.ErrWithdrawalPending.
	Save(ctx context.Context, tx Tx, w *model.WithdrawalRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.WithdrawalRequest, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.WithdrawalRequest, error)
	ListPending(ctx context.Context, tx Tx, offset, limit int) ([]*model.WithdrawalRequest, error)
	// Decide flips a pending request to approved/rejected exactly once.
	Decide(ctx context.Context, tx Tx, id string, to model.RequestStatus, processedBy string, notes string) (bool, error)
	CountPending(ctx context.Context, tx Tx) (int, error)
}

type DepositRepository interface {
	Save(ctx context.Context, tx Tx, d *model.DepositRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.DepositRequest, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.DepositRequest, error)
	ListPending(ctx context.Context, tx Tx, offset, limit int) ([]*model.DepositRequest, error)
	Decide(ctx context.Context, tx Tx, id string, to model.RequestStatus, processedBy string, notes string) (bool, error)
	CountPending(ctx context.Context, tx Tx) (int, error)
}
