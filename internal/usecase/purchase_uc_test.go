//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

type purchaseFixture struct {
	users    *memUserRepo
	ledger   *memLedgerRepo
	packages *memPackageRepo
	subs     *memSubscriptionRepo
	yields   *memYieldRepo
	notes    *memNotificationRepo
	uc       *purchaseUC
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	f := &purchaseFixture{
		users:    newMemUserRepo(),
		ledger:   newMemLedgerRepo(),
		packages: newMemPackageRepo(),
		subs:     newMemSubscriptionRepo(),
		yields:   newMemYieldRepo(),
		notes:    newMemNotificationRepo(),
	}
	logger := newTestLogger()
	tm := &mockTxManager{}
	wallet := NewWalletUseCase(f.users, f.ledger, tm, logger)
	noteUC := NewNotificationUseCase(f.notes, noopNotifier{}, logger)
	referral := NewReferralDispatcher(f.users, f.subs, wallet, noteUC, 15, 5, "KES", logger)
	f.uc = NewPurchaseUseCase(f.subs, f.packages, f.yields, wallet, referral, noteUC, tm,
		30*time.Minute, "KES", time.UTC, logger)
	return f
}

func seedPackage(t *testing.T, repo *memPackageRepo, id string, price float64, days int, roi float64) *model.Package {
	t.Helper()
	p, err := model.NewPackage(id, "Pkg "+id, price, days, roi)
	if err != nil {
		t.Fatalf("seed package: %v", err)
	}
	if err := repo.Save(context.Background(), repository.NoTX, p); err != nil {
		t.Fatalf("save package: %v", err)
	}
	return p
}

func TestPurchaseUseCase_PurchaseWithWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("activates immediately and debits the wallet", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 2000, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)

		sub, err := f.uc.PurchaseWithWallet(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sub.Status != model.SubscriptionStatusActive {
			t.Errorf("expected active, got %s", sub.Status)
		}
		if sub.StartAt == nil || sub.EndAt == nil {
			t.Fatal("expected earning period to be stamped")
		}

		u, _ := f.users.FindByID(ctx, repository.NoTX, "u1")
		if u.Wallet.Balance != 1000 || u.Wallet.Available != 1000 {
			t.Errorf("expected 1000/1000 after purchase, got %.2f/%.2f", u.Wallet.Balance, u.Wallet.Available)
		}
		if u.Wallet.TotalInvested != 1000 {
			t.Errorf("expected total invested 1000, got %.2f", u.Wallet.TotalInvested)
		}

		p, _ := f.packages.FindByID(ctx, repository.NoTX, "p1")
		if p.Subscribers != 1 || p.TotalRevenue != 1000 {
			t.Errorf("expected counters 1/1000, got %d/%.2f", p.Subscribers, p.TotalRevenue)
		}
	})

	t.Run("activation day is marked so the first claim lands tomorrow", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 2000, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)

		sub, err := f.uc.PurchaseWithWallet(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		day := truncateToDay(time.Now(), time.UTC)
		inserted, err := f.yields.InsertUnique(ctx, repository.NoTX, model.NewDailyYield(sub, day, sub.DailyIncome()))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if inserted {
			t.Error("expected the activation-day marker to block a same-day claim")
		}
	})

	t.Run("insufficient balance leaves everything untouched", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 500, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)

		_, err := f.uc.PurchaseWithWallet(ctx, "u1", "p1")
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
		}
		if subs, _ := f.subs.ListByUser(ctx, repository.NoTX, "u1"); len(subs) != 0 {
			t.Errorf("expected no subscriptions, got %d", len(subs))
		}
	})

	t.Run("inactive package cannot be bought", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 2000, nil)
		p := seedPackage(t, f.packages, "p1", 1000, 30, 120)
		p.Status = model.PackageStatusInactive
		_ = f.packages.Save(ctx, repository.NoTX, p)

		if _, err := f.uc.PurchaseWithWallet(ctx, "u1", "p1"); !errors.Is(err, domain.ErrPackageInactive) {
			t.Fatalf("expected ErrPackageInactive, got: %v", err)
		}
	})

	t.Run("first activated purchase pays the referrer 15 percent", func(t *testing.T) {
		f := newPurchaseFixture(t)
		referrer := seedUser(t, f.users, "ref", 0, nil)
		seedUser(t, f.users, "u1", 5000, &referrer.ID)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)

		if _, err := f.uc.PurchaseWithWallet(ctx, "u1", "p1"); err != nil {
			t.Fatalf("purchase: %v", err)
		}
		r, _ := f.users.FindByID(ctx, repository.NoTX, "ref")
		if r.Wallet.Balance != 150 {
			t.Errorf("expected referrer balance 150, got %.2f", r.Wallet.Balance)
		}
		if notes, _ := f.notes.ListByUser(ctx, repository.NoTX, "ref", 0, 10); len(notes) != 1 {
			t.Errorf("expected 1 referrer notification, got %d", len(notes))
		}

		// Second purchase pays no further bonus.
		if _, err := f.uc.PurchaseWithWallet(ctx, "u1", "p1"); err != nil {
			t.Fatalf("second purchase: %v", err)
		}
		r, _ = f.users.FindByID(ctx, repository.NoTX, "ref")
		if r.Wallet.Balance != 150 {
			t.Errorf("expected referrer balance still 150, got %.2f", r.Wallet.Balance)
		}
	})
}

func TestPurchaseUseCase_MpesaFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("full pending_payment to active path", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)

		sub, err := f.uc.PurchaseWithMpesa(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("purchase: %v", err)
		}
		if sub.Status != model.SubscriptionStatusPendingPayment {
			t.Fatalf("expected pending_payment, got %s", sub.Status)
		}
		if sub.ExpiresAt == nil {
			t.Fatal("expected an expiry window")
		}

		sub, err = f.uc.SubmitConfirmation(ctx, "u1", sub.ID, "QJ12ABC confirmed Ksh1,000")
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if sub.Status != model.SubscriptionStatusPending {
			t.Fatalf("expected pending, got %s", sub.Status)
		}
		if admin, _ := f.notes.ListAdmin(ctx, repository.NoTX, 0, 10); len(admin) != 1 {
			t.Errorf("expected 1 admin notification, got %d", len(admin))
		}

		if err := f.uc.Approve(ctx, "admin-1", sub.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
		got, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		if got.Status != model.SubscriptionStatusActive {
			t.Errorf("expected active, got %s", got.Status)
		}
		if got.StartAt == nil || got.ProcessedBy == nil || *got.ProcessedBy != "admin-1" {
			t.Error("expected activation stamp and processed_by")
		}

		// No wallet movement on the M-Pesa path.
		u, _ := f.users.FindByID(ctx, repository.NoTX, "u1")
		if u.Wallet.Balance != 0 {
			t.Errorf("expected untouched wallet, got %.2f", u.Wallet.Balance)
		}
	})

	t.Run("second approval is rejected", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)
		sub, _ := f.uc.PurchaseWithMpesa(ctx, "u1", "p1")
		sub, _ = f.uc.SubmitConfirmation(ctx, "u1", sub.ID, "msg")

		if err := f.uc.Approve(ctx, "admin-1", sub.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if err := f.uc.Approve(ctx, "admin-2", sub.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition on double approve, got: %v", err)
		}
	})

	t.Run("confirmation by another user is forbidden", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		seedUser(t, f.users, "u2", 0, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)
		sub, _ := f.uc.PurchaseWithMpesa(ctx, "u1", "p1")

		if _, err := f.uc.SubmitConfirmation(ctx, "u2", sub.ID, "msg"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got: %v", err)
		}
	})

	t.Run("reject notifies the buyer", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)
		sub, _ := f.uc.PurchaseWithMpesa(ctx, "u1", "p1")
		sub, _ = f.uc.SubmitConfirmation(ctx, "u1", sub.ID, "msg")

		if err := f.uc.Reject(ctx, "admin-1", sub.ID, "no matching payment"); err != nil {
			t.Fatalf("reject: %v", err)
		}
		got, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		if got.Status != model.SubscriptionStatusRejected {
			t.Errorf("expected rejected, got %s", got.Status)
		}
		if notes, _ := f.notes.ListByUser(ctx, repository.NoTX, "u1", 0, 10); len(notes) != 1 {
			t.Errorf("expected 1 buyer notification, got %d", len(notes))
		}
	})

	t.Run("overdue pending payments are swept", func(t *testing.T) {
		f := newPurchaseFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		seedPackage(t, f.packages, "p1", 1000, 30, 120)
		sub, _ := f.uc.PurchaseWithMpesa(ctx, "u1", "p1")

		// Backdate the window.
		stored, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		past := time.Now().Add(-time.Hour)
		stored.ExpiresAt = &past
		_ = f.subs.Save(ctx, repository.NoTX, stored)

		n, err := f.uc.ExpireOverdue(ctx)
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 expired, got %d", n)
		}
		got, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		if got.Status != model.SubscriptionStatusExpired {
			t.Errorf("expected expired, got %s", got.Status)
		}
	})
}
