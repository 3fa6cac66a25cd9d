//go:build !integration

package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

type yieldFixture struct {
	users  *memUserRepo
	ledger *memLedgerRepo
	subs   *memSubscriptionRepo
	yields *memYieldRepo
	notes  *memNotificationRepo
	uc     *yieldUC
}

func newYieldFixture(t *testing.T) *yieldFixture {
	t.Helper()
	f := &yieldFixture{
		users:  newMemUserRepo(),
		ledger: newMemLedgerRepo(),
		subs:   newMemSubscriptionRepo(),
		yields: newMemYieldRepo(),
		notes:  newMemNotificationRepo(),
	}
	logger := newTestLogger()
	tm := &mockTxManager{}
	wallet := NewWalletUseCase(f.users, f.ledger, tm, logger)
	noteUC := NewNotificationUseCase(f.notes, noopNotifier{}, logger)
	referral := NewReferralDispatcher(f.users, f.subs, wallet, noteUC, 15, 5, "KES", logger)
	f.uc = NewYieldUseCase(f.subs, f.yields, wallet, referral, tm, "KES", time.UTC, logger)
	return f
}

// seedActiveSub saves an already-active subscription with a fresh earning
// period and no activation-day marker, so a claim is possible immediately.
func seedActiveSub(t *testing.T, subs *memSubscriptionRepo, id, userID string, price float64, days int, roi float64) *model.Subscription {
	t.Helper()
	pkg, err := model.NewPackage("pkg-"+id, "Pkg", price, days, roi)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	sub, err := model.NewSubscription(id, userID, pkg, model.PaymentMethodWallet, 0)
	if err != nil {
		t.Fatalf("subscription: %v", err)
	}
	if err := subs.Save(context.Background(), repository.NoTX, sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	return sub
}

func TestYieldUseCase_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the snapshot daily income once per day", func(t *testing.T) {
		f := newYieldFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 1000, 30, 120)

		paid, err := f.uc.Claim(ctx, "u1", sub.ID)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		want := 1000 * 120.0 / 100 / 30 // 40 per day
		if math.Abs(paid.Amount-want) > 1e-9 {
			t.Errorf("expected %.2f, got %.2f", want, paid.Amount)
		}

		u, _ := f.users.FindByID(ctx, repository.NoTX, "u1")
		if math.Abs(u.Wallet.Balance-want) > 1e-9 {
			t.Errorf("expected balance %.2f, got %.2f", want, u.Wallet.Balance)
		}

		got, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		if math.Abs(got.TotalEarnings-want) > 1e-9 || got.LastYieldDate == nil {
			t.Error("expected earnings and last yield date recorded")
		}

		if _, err := f.uc.Claim(ctx, "u1", sub.ID); !errors.Is(err, domain.ErrAlreadyClaimedToday) {
			t.Fatalf("expected ErrAlreadyClaimedToday, got: %v", err)
		}
	})

	t.Run("snapshot wins over later package edits", func(t *testing.T) {
		f := newYieldFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 300, 30, 100) // 10 per day

		// Catalog edits after purchase change nothing for this subscription;
		// the claim reads only the snapshot fields on the row.
		paid, err := f.uc.Claim(ctx, "u1", sub.ID)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if math.Abs(paid.Amount-10) > 1e-9 {
			t.Errorf("expected snapshot income 10, got %.2f", paid.Amount)
		}
	})

	t.Run("someone else's subscription is forbidden", func(t *testing.T) {
		f := newYieldFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		seedUser(t, f.users, "u2", 0, nil)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 1000, 30, 120)

		if _, err := f.uc.Claim(ctx, "u2", sub.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got: %v", err)
		}
	})

	t.Run("non-active subscription cannot claim", func(t *testing.T) {
		f := newYieldFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 1000, 30, 120)
		stored, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		stored.Status = model.SubscriptionStatusCompleted
		_ = f.subs.Save(ctx, repository.NoTX, stored)

		if _, err := f.uc.Claim(ctx, "u1", sub.ID); !errors.Is(err, domain.ErrSubscriptionNotActive) {
			t.Fatalf("expected ErrSubscriptionNotActive, got: %v", err)
		}
	})

	t.Run("claim past the earning period completes the subscription", func(t *testing.T) {
		f := newYieldFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 1000, 30, 120)

		stored, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		start := time.Now().Add(-31 * 24 * time.Hour)
		end := time.Now().Add(-24 * time.Hour)
		stored.StartAt, stored.EndAt = &start, &end
		_ = f.subs.Save(ctx, repository.NoTX, stored)

		if _, err := f.uc.Claim(ctx, "u1", sub.ID); !errors.Is(err, domain.ErrSubscriptionExpired) {
			t.Fatalf("expected ErrSubscriptionExpired, got: %v", err)
		}
		got, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		if got.Status != model.SubscriptionStatusCompleted {
			t.Errorf("expected completed, got %s", got.Status)
		}
	})

	t.Run("last payable day completes the subscription", func(t *testing.T) {
		f := newYieldFixture(t)
		seedUser(t, f.users, "u1", 0, nil)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 100, 1, 100)

		if _, err := f.uc.Claim(ctx, "u1", sub.ID); err != nil {
			t.Fatalf("claim: %v", err)
		}
		got, _ := f.subs.FindByID(ctx, repository.NoTX, sub.ID)
		if got.Status != model.SubscriptionStatusCompleted {
			t.Errorf("expected completed after final claim, got %s", got.Status)
		}
	})

	t.Run("referrer receives 5 percent of every claim", func(t *testing.T) {
		f := newYieldFixture(t)
		referrer := seedUser(t, f.users, "ref", 0, nil)
		seedUser(t, f.users, "u1", 0, &referrer.ID)
		sub := seedActiveSub(t, f.subs, "s1", "u1", 1000, 30, 120) // 40/day

		if _, err := f.uc.Claim(ctx, "u1", sub.ID); err != nil {
			t.Fatalf("claim: %v", err)
		}
		r, _ := f.users.FindByID(ctx, repository.NoTX, "ref")
		if math.Abs(r.Wallet.Balance-2) > 1e-9 {
			t.Errorf("expected referrer cut 2.00, got %.2f", r.Wallet.Balance)
		}
		cuts := f.ledger.byUserAndType("ref", model.EntrySubordinateIncome)
		if len(cuts) != 1 {
			t.Errorf("expected 1 subordinate_income entry, got %d", len(cuts))
		}
	})
}
