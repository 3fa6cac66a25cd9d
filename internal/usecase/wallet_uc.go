package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/logging"
)

// WalletUseCase is the single authority over wallet balances. Every balance
// change in the system, no matter which flow triggered it, routes through
// Post or PostHeld so the ledger and the wallet columns can never drift.
type WalletUseCase interface {
	// Post applies a signed amount to the user's balance and available figure
	// inside the caller's transaction and writes the matching ledger entry.
	Post(ctx context.Context, tx repository.Tx, userID string, entryType model.EntryType, amount float64, description string) (*model.LedgerEntry, error)

	// PostHeld settles an amount that was escrowed earlier via Hold: the
	// balance drops but available is untouched, since the hold already
	// removed the funds from the spendable figure.
	PostHeld(ctx context.Context, tx repository.Tx, userID string, entryType model.EntryType, amount float64, description string) (*model.LedgerEntry, error)

	Wallet(ctx context.Context, userID string) (*model.Wallet, error)
	History(ctx context.Context, userID string, offset, limit int) ([]*model.LedgerEntry, error)
	AdminAdjust(ctx context.Context, adminID, userID string, amount float64, description string) (*model.LedgerEntry, error)
}

var _ WalletUseCase = (*walletUC)(nil)

type walletUC struct {
	users  repository.UserRepository
	ledger repository.LedgerRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewWalletUseCase(
	users repository.UserRepository,
	ledger repository.LedgerRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *walletUC {
	return &walletUC{users: users, ledger: ledger, tm: tm, log: logger}
}

// deltas derives the invested/returns counter movement from the entry type.
func deltas(entryType model.EntryType, amount float64) (invested, returns float64) {
	switch {
	case entryType == model.EntryInvestment:
		invested = -amount // amount is negative for investments
	case entryType.IsEarning():
		returns = amount
	}
	return invested, returns
}

func (u *walletUC) post(ctx context.Context, tx repository.Tx, userID string, entryType model.EntryType, amount float64, description string, consumeHold bool) (*model.LedgerEntry, error) {
	if !entryType.Valid() {
		return nil, fmt.Errorf("%w: entry type %q", domain.ErrInvalidArgument, entryType)
	}
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	invested, returns := deltas(entryType, amount)
	balance, available, err := u.users.ApplyEntry(ctx, tx, userID, amount, consumeHold, invested, returns)
	if err != nil {
		return nil, err
	}
	entry := &model.LedgerEntry{
		ID:             ulid.Make().String(),
		UserID:         userID,
		Type:           entryType,
		Amount:         amount,
		Description:    description,
		BalanceAfter:   balance,
		AvailableAfter: available,
		CreatedAt:      time.Now(),
	}
	if err := u.ledger.Insert(ctx, tx, entry); err != nil {
		return nil, err
	}
	u.log.Debug().Str("user_id", userID).Str("type", string(entryType)).
		Float64("amount", amount).Float64("balance", balance).Msg("ledger entry posted")
	return entry, nil
}

func (u *walletUC) Post(ctx context.Context, tx repository.Tx, userID string, entryType model.EntryType, amount float64, description string) (*model.LedgerEntry, error) {
	return u.post(ctx, tx, userID, entryType, amount, description, false)
}

func (u *walletUC) PostHeld(ctx context.Context, tx repository.Tx, userID string, entryType model.EntryType, amount float64, description string) (*model.LedgerEntry, error) {
	return u.post(ctx, tx, userID, entryType, amount, description, true)
}

func (u *walletUC) Wallet(ctx context.Context, userID string) (*model.Wallet, error) {
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	w := user.Wallet
	return &w, nil
}

func (u *walletUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.LedgerEntry, error) {
	return u.ledger.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

// AdminAdjust credits or debits a wallet out of band. Positive amounts post
// as admin_credit, negative as admin_debit; debits fail when the user's
// available funds cannot cover them.
func (u *walletUC) AdminAdjust(ctx context.Context, adminID, userID string, amount float64, description string) (*model.LedgerEntry, error) {
	defer logging.TraceDuration(logging.With(ctx, u.log), "WalletUC.AdminAdjust")()
	if amount == 0 {
		return nil, domain.ErrInvalidAmount
	}
	entryType := model.EntryAdminCredit
	if amount < 0 {
		entryType = model.EntryAdminDebit
	}
	if description == "" {
		description = fmt.Sprintf("manual adjustment by %s", adminID)
	}
	var entry *model.LedgerEntry
	err := u.tm.WithUserLock(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entry, err = u.post(ctx, tx, userID, entryType, amount, description, false)
		return err
	})
	return entry, err
}
