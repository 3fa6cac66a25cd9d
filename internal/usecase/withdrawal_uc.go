package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/logging"
	"investment-platform/internal/infra/metrics"
)

// WithdrawalUseCase handles the request/approve cycle for M-Pesa payouts.
//
// Funds are escrowed at request time: Request moves the amount out of
// Available, approval settles it out of Balance, rejection releases it back.
// One open request per user per calendar day, inside the weekday business
// window; a rejected or settled request frees the day again.
type WithdrawalUseCase interface {
	Request(ctx context.Context, userID string, amount float64, phone, pin string) (*model.WithdrawalRequest, error)
	Approve(ctx context.Context, adminID, requestID string) error
	Reject(ctx context.Context, adminID, requestID, notes string) error

	ListByUser(ctx context.Context, userID string) ([]*model.WithdrawalRequest, error)
	ListPending(ctx context.Context, offset, limit int) ([]*model.WithdrawalRequest, error)
}

var _ WithdrawalUseCase = (*withdrawalUC)(nil)

type withdrawalUC struct {
	users       repository.UserRepository
	withdrawals repository.WithdrawalRepository
	wallet      WalletUseCase
	notes       NotificationUseCase
	tm          repository.TransactionManager

	minAmount float64
	openHour  int
	closeHour int
	currency  string
	loc       *time.Location
	log       *zerolog.Logger
	now       func() time.Time // swapped in tests
}

func NewWithdrawalUseCase(
	users repository.UserRepository,
	withdrawals repository.WithdrawalRepository,
	wallet WalletUseCase,
	notes NotificationUseCase,
	tm repository.TransactionManager,
	minAmount float64,
	openHour, closeHour int,
	currency string,
	loc *time.Location,
	logger *zerolog.Logger,
) *withdrawalUC {
	return &withdrawalUC{
		users:       users,
		withdrawals: withdrawals,
		wallet:      wallet,
		notes:       notes,
		tm:          tm,
		minAmount:   minAmount,
		openHour:    openHour,
		closeHour:   closeHour,
		currency:    currency,
		loc:         loc,
		log:         logger,
		now:         time.Now,
	}
}

// windowOpen reports whether withdrawals are accepted at t: weekdays only,
// within the configured local business hours.
func (u *withdrawalUC) windowOpen(t time.Time) bool {
	t = t.In(u.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return t.Hour() >= u.openHour && t.Hour() < u.closeHour
}

// verifyPIN checks the withdrawal PIN, setting it on first use. The PIN write
// happens inside the request transaction so a failed request never leaves a
// half-established PIN behind.
func (u *withdrawalUC) verifyPIN(ctx context.Context, tx repository.Tx, user *model.User, pin string) error {
	if len(pin) < 4 {
		return domain.ErrInvalidPIN
	}
	if !user.HasPIN() {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		return u.users.SetPINHash(ctx, tx, user.ID, string(hash))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PINHash), []byte(pin)); err != nil {
		return domain.ErrInvalidPIN
	}
	return nil
}

func (u *withdrawalUC) Request(ctx context.Context, userID string, amount float64, phone, pin string) (*model.WithdrawalRequest, error) {
	defer logging.TraceDuration(logging.With(ctx, u.log), "WithdrawalUC.Request")()

	// Cheap checks before any database work.
	if amount < u.minAmount {
		return nil, domain.ErrBelowMinimumWithdrawal
	}
	if !u.windowOpen(u.now()) {
		return nil, domain.ErrWithdrawalWindowClosed
	}

	var req *model.WithdrawalRequest
	err := u.tm.WithUserLock(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.verifyPIN(ctx, tx, user, pin); err != nil {
			return err
		}
		if err := u.users.Hold(ctx, tx, userID, amount); err != nil {
			return err
		}
		req, err = model.NewWithdrawalRequest(userID, amount, phone)
		if err != nil {
			return err
		}
		if err := u.withdrawals.Save(ctx, tx, req); err != nil {
			return err
		}
		body := fmt.Sprintf("%s requests %s %.2f to %s.", user.FullName, u.currency, amount, phone)
		return u.notes.NotifyAdmin(ctx, tx, model.NotificationWithdrawal, "Withdrawal request", body)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncWithdrawal("requested")
	u.log.Info().Str("user_id", userID).Str("request_id", req.ID).
		Float64("amount", amount).Msg("withdrawal requested")
	return req, nil
}

func (u *withdrawalUC) Approve(ctx context.Context, adminID, requestID string) error {
	req, err := u.withdrawals.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return err
	}
	err = u.tm.WithUserLock(ctx, req.UserID, func(ctx context.Context, tx repository.Tx) error {
		decided, err := u.withdrawals.Decide(ctx, tx, req.ID, model.RequestStatusApproved, adminID, "")
		if err != nil {
			return err
		}
		if !decided {
			return domain.ErrInvalidTransition
		}
		desc := fmt.Sprintf("withdrawal to %s", req.PhoneNumber)
		if _, err := u.wallet.PostHeld(ctx, tx, req.UserID, model.EntryWithdrawal, -req.Amount, desc); err != nil {
			return err
		}
		body := fmt.Sprintf("Your withdrawal of %s %.2f to %s was sent.", u.currency, req.Amount, req.PhoneNumber)
		return u.notes.NotifyUser(ctx, tx, req.UserID, model.NotificationWithdrawal, "Withdrawal approved", body)
	})
	if err != nil {
		return err
	}
	metrics.IncWithdrawal("approved")
	return nil
}

func (u *withdrawalUC) Reject(ctx context.Context, adminID, requestID, notes string) error {
	req, err := u.withdrawals.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return err
	}
	err = u.tm.WithUserLock(ctx, req.UserID, func(ctx context.Context, tx repository.Tx) error {
		decided, err := u.withdrawals.Decide(ctx, tx, req.ID, model.RequestStatusRejected, adminID, notes)
		if err != nil {
			return err
		}
		if !decided {
			return domain.ErrInvalidTransition
		}
		if err := u.users.ReleaseHold(ctx, tx, req.UserID, req.Amount); err != nil {
			return err
		}
		body := fmt.Sprintf("Your withdrawal of %s %.2f was rejected. %s", u.currency, req.Amount, notes)
		return u.notes.NotifyUser(ctx, tx, req.UserID, model.NotificationWithdrawal, "Withdrawal rejected", body)
	})
	if err != nil {
		return err
	}
	metrics.IncWithdrawal("rejected")
	return nil
}

func (u *withdrawalUC) ListByUser(ctx context.Context, userID string) ([]*model.WithdrawalRequest, error) {
	return u.withdrawals.ListByUser(ctx, repository.NoTX, userID)
}

func (u *withdrawalUC) ListPending(ctx context.Context, offset, limit int) ([]*model.WithdrawalRequest, error) {
	return u.withdrawals.ListPending(ctx, repository.NoTX, offset, limit)
}
