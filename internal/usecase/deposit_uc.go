package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/metrics"
)

// DepositUseCase handles manual M-Pesa top-ups: the user pastes the
// confirmation SMS, an admin verifies it against the till statement and
// approves. The wallet is only credited on approval.
type DepositUseCase interface {
	Request(ctx context.Context, userID string, amount float64, message string) (*model.DepositRequest, error)
	Approve(ctx context.Context, adminID, requestID string) error
	Reject(ctx context.Context, adminID, requestID, notes string) error

	ListByUser(ctx context.Context, userID string) ([]*model.DepositRequest, error)
	ListPending(ctx context.Context, offset, limit int) ([]*model.DepositRequest, error)
}

var _ DepositUseCase = (*depositUC)(nil)

type depositUC struct {
	users    repository.UserRepository
	deposits repository.DepositRepository
	wallet   WalletUseCase
	notes    NotificationUseCase
	tm       repository.TransactionManager

	minAmount float64
	currency  string
	log       *zerolog.Logger
}

func NewDepositUseCase(
	users repository.UserRepository,
	deposits repository.DepositRepository,
	wallet WalletUseCase,
	notes NotificationUseCase,
	tm repository.TransactionManager,
	minAmount float64,
	currency string,
	logger *zerolog.Logger,
) *depositUC {
	return &depositUC{
		users:     users,
		deposits:  deposits,
		wallet:    wallet,
		notes:     notes,
		tm:        tm,
		minAmount: minAmount,
		currency:  currency,
		log:       logger,
	}
}

func (u *depositUC) Request(ctx context.Context, userID string, amount float64, message string) (*model.DepositRequest, error) {
	if amount < u.minAmount {
		return nil, domain.ErrInvalidAmount
	}
	req, err := model.NewDepositRequest(userID, amount, message)
	if err != nil {
		return nil, err
	}
	err = u.tm.WithTx(ctx, defaultTxOptions, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.deposits.Save(ctx, tx, req); err != nil {
			return err
		}
		body := fmt.Sprintf("%s claims a deposit of %s %.2f.", user.FullName, u.currency, amount)
		return u.notes.NotifyAdmin(ctx, tx, model.NotificationDeposit, "Deposit to verify", body)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncDeposit("requested")
	u.log.Info().Str("user_id", userID).Str("request_id", req.ID).
		Float64("amount", amount).Msg("deposit requested")
	return req, nil
}

func (u *depositUC) Approve(ctx context.Context, adminID, requestID string) error {
	req, err := u.deposits.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return err
	}
	err = u.tm.WithUserLock(ctx, req.UserID, func(ctx context.Context, tx repository.Tx) error {
		decided, err := u.deposits.Decide(ctx, tx, req.ID, model.RequestStatusApproved, adminID, "")
		if err != nil {
			return err
		}
		if !decided {
			return domain.ErrInvalidTransition
		}
		if _, err := u.wallet.Post(ctx, tx, req.UserID, model.EntryDeposit, req.Amount, "M-Pesa deposit"); err != nil {
			return err
		}
		body := fmt.Sprintf("Your deposit of %s %.2f was credited.", u.currency, req.Amount)
		return u.notes.NotifyUser(ctx, tx, req.UserID, model.NotificationDeposit, "Deposit approved", body)
	})
	if err != nil {
		return err
	}
	metrics.IncDeposit("approved")
	return nil
}

func (u *depositUC) Reject(ctx context.Context, adminID, requestID, notes string) error {
	req, err := u.deposits.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return err
	}
	err = u.tm.WithTx(ctx, defaultTxOptions, func(ctx context.Context, tx repository.Tx) error {
		decided, err := u.deposits.Decide(ctx, tx, req.ID, model.RequestStatusRejected, adminID, notes)
		if err != nil {
			return err
		}
		if !decided {
			return domain.ErrInvalidTransition
		}
		body := fmt.Sprintf("Your deposit claim of %s %.2f was rejected. %s", u.currency, req.Amount, notes)
		return u.notes.NotifyUser(ctx, tx, req.UserID, model.NotificationDeposit, "Deposit rejected", body)
	})
	if err != nil {
		return err
	}
	metrics.IncDeposit("rejected")
	return nil
}

func (u *depositUC) ListByUser(ctx context.Context, userID string) ([]*model.DepositRequest, error) {
	return u.deposits.ListByUser(ctx, repository.NoTX, userID)
}

func (u *depositUC) ListPending(ctx context.Context, offset, limit int) ([]*model.DepositRequest, error) {
	return u.deposits.ListPending(ctx, repository.NoTX, offset, limit)
}
