//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

type depositFixture struct {
	users    *memUserRepo
	ledger   *memLedgerRepo
	deposits *memDepositRepo
	notes    *memNotificationRepo
	uc       *depositUC
}

func newDepositFixture(t *testing.T) *depositFixture {
	t.Helper()
	f := &depositFixture{
		users:    newMemUserRepo(),
		ledger:   newMemLedgerRepo(),
		deposits: newMemDepositRepo(),
		notes:    newMemNotificationRepo(),
	}
	logger := newTestLogger()
	tm := &mockTxManager{}
	wallet := NewWalletUseCase(f.users, f.ledger, tm, logger)
	noteUC := NewNotificationUseCase(f.notes, noopNotifier{}, logger)
	f.uc = NewDepositUseCase(f.users, f.deposits, wallet, noteUC, tm, 50, "KES", logger)
	return f
}

func TestDepositUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("request records the claim without touching the wallet", func(t *testing.T) {
		f := newDepositFixture(t)
		seedUser(t, f.users, "u1", 0, nil)

		req, err := f.uc.Request(ctx, "u1", 500, "QJ12ABC confirmed Ksh500")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if req.Status != model.RequestStatusPending {
			t.Errorf("expected pending, got %s", req.Status)
		}
		u, _ := f.users.FindByID(ctx, repository.NoTX, "u1")
		if u.Wallet.Balance != 0 {
			t.Errorf("expected untouched wallet, got %.2f", u.Wallet.Balance)
		}
		if admin, _ := f.notes.ListAdmin(ctx, repository.NoTX, 0, 10); len(admin) != 1 {
			t.Errorf("expected 1 admin notification, got %d", len(admin))
		}
	})

	t.Run("below the minimum is rejected", func(t *testing.T) {
		f := newDepositFixture(t)
		seedUser(t, f.users, "u1", 0, nil)

		if _, err := f.uc.Request(ctx, "u1", 10, "msg"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got: %v", err)
		}
	})

	t.Run("approve credits the wallet once", func(t *testing.T) {
		f := newDepositFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		req, err := f.uc.Request(ctx, "u1", 500, "msg")
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		if err := f.uc.Approve(ctx, "admin-1", req.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
		u, _ := f.users.FindByID(ctx, repository.NoTX, "u1")
		if u.Wallet.Balance != 500 || u.Wallet.Available != 500 {
			t.Errorf("expected 500/500, got %.2f/%.2f", u.Wallet.Balance, u.Wallet.Available)
		}

		if err := f.uc.Approve(ctx, "admin-2", req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition on double approve, got: %v", err)
		}
		u, _ = f.users.FindByID(ctx, repository.NoTX, "u1")
		if u.Wallet.Balance != 500 {
			t.Errorf("expected balance unchanged, got %.2f", u.Wallet.Balance)
		}
	})

	t.Run("reject leaves the wallet alone and notifies the user", func(t *testing.T) {
		f := newDepositFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		req, err := f.uc.Request(ctx, "u1", 500, "msg")
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		if err := f.uc.Reject(ctx, "admin-1", req.ID, "no matching payment"); err != nil {
			t.Fatalf("reject: %v", err)
		}
		u, _ := f.users.FindByID(ctx, repository.NoTX, "u1")
		if u.Wallet.Balance != 0 {
			t.Errorf("expected untouched wallet, got %.2f", u.Wallet.Balance)
		}
		if notes, _ := f.notes.ListByUser(ctx, repository.NoTX, "u1", 0, 10); len(notes) != 1 {
			t.Errorf("expected 1 user notification, got %d", len(notes))
		}
	})
}
