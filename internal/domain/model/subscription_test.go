//go:build !integration

package model

import (
	"math"
	"testing"
	"time"
)

func testPackage(t *testing.T) *Package {
	t.Helper()
	p, err := NewPackage("p1", "Silver", 1000, 30, 120)
	if err != nil {
		t.Fatalf("package: %v", err)
	}
	return p
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SubscriptionStatus
		want     bool
	}{
		{SubscriptionStatusPendingPayment, SubscriptionStatusPending, true},
		{SubscriptionStatusPendingPayment, SubscriptionStatusRejected, true},
		{SubscriptionStatusPendingPayment, SubscriptionStatusExpired, true},
		{SubscriptionStatusPendingPayment, SubscriptionStatusActive, false},
		{SubscriptionStatusPending, SubscriptionStatusActive, true},
		{SubscriptionStatusPending, SubscriptionStatusRejected, true},
		{SubscriptionStatusPending, SubscriptionStatusExpired, false},
		{SubscriptionStatusActive, SubscriptionStatusCompleted, true},
		{SubscriptionStatusActive, SubscriptionStatusRejected, false},
		{SubscriptionStatusCompleted, SubscriptionStatusActive, false},
		{SubscriptionStatusRejected, SubscriptionStatusPending, false},
		{SubscriptionStatusExpired, SubscriptionStatusActive, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestSubscriptionStatus_IsTerminal(t *testing.T) {
	terminal := []SubscriptionStatus{
		SubscriptionStatusCompleted,
		SubscriptionStatusRejected,
		SubscriptionStatusExpired,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	open := []SubscriptionStatus{
		SubscriptionStatusPendingPayment,
		SubscriptionStatusPending,
		SubscriptionStatusActive,
	}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("expected %s to be open", s)
		}
	}
}

func TestNewSubscription(t *testing.T) {
	pkg := testPackage(t)

	t.Run("wallet purchases start active with a stamped period", func(t *testing.T) {
		s, err := NewSubscription("", "u1", pkg, PaymentMethodWallet, 0)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if s.Status != SubscriptionStatusActive {
			t.Errorf("expected active, got %s", s.Status)
		}
		if s.StartAt == nil || s.EndAt == nil {
			t.Fatal("expected earning period")
		}
		if got := s.EndAt.Sub(*s.StartAt); got != 30*24*time.Hour {
			t.Errorf("expected a 30 day period, got %s", got)
		}
		if s.ID == "" {
			t.Error("expected a generated id")
		}
	})

	t.Run("mpesa purchases start pending_payment with an expiry window", func(t *testing.T) {
		s, err := NewSubscription("", "u1", pkg, PaymentMethodMpesa, 30*time.Minute)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if s.Status != SubscriptionStatusPendingPayment {
			t.Errorf("expected pending_payment, got %s", s.Status)
		}
		if s.ExpiresAt == nil {
			t.Fatal("expected an expiry window")
		}
		if s.StartAt != nil || s.EndAt != nil {
			t.Error("expected no earning period before activation")
		}
	})

	t.Run("snapshot copies the package terms", func(t *testing.T) {
		s, _ := NewSubscription("", "u1", pkg, PaymentMethodWallet, 0)
		if s.PackageName != "Silver" || s.Price != 1000 || s.DurationDays != 30 || s.ROIPercent != 120 {
			t.Error("expected package terms to be snapshotted")
		}
	})

	t.Run("missing user or package is rejected", func(t *testing.T) {
		if _, err := NewSubscription("", "", pkg, PaymentMethodWallet, 0); err == nil {
			t.Error("expected an error for empty user")
		}
		if _, err := NewSubscription("", "u1", nil, PaymentMethodWallet, 0); err == nil {
			t.Error("expected an error for nil package")
		}
		if _, err := NewSubscription("", "u1", pkg, PaymentMethod("cash"), 0); err == nil {
			t.Error("expected an error for unknown payment method")
		}
	})
}

func TestSubscription_DailyIncome(t *testing.T) {
	s := &Subscription{Price: 1000, ROIPercent: 120, DurationDays: 30}
	if got := s.DailyIncome(); math.Abs(got-40) > 1e-9 {
		t.Errorf("expected 40, got %.4f", got)
	}

	s = &Subscription{Price: 5000, ROIPercent: 150, DurationDays: 45}
	want := 5000 * 150.0 / 100 / 45
	if got := s.DailyIncome(); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %.4f, got %.4f", want, got)
	}

	s = &Subscription{Price: 1000, ROIPercent: 120, DurationDays: 0}
	if got := s.DailyIncome(); got != 0 {
		t.Errorf("expected 0 for zero duration, got %.4f", got)
	}
}

func TestSubscription_WithinEarningPeriod(t *testing.T) {
	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	s := &Subscription{StartAt: &start, EndAt: &end}

	if !s.WithinEarningPeriod(start) {
		t.Error("expected the start instant to be inside")
	}
	if !s.WithinEarningPeriod(end.Add(-time.Second)) {
		t.Error("expected just before the end to be inside")
	}
	if s.WithinEarningPeriod(end) {
		t.Error("expected the end instant to be outside")
	}
	if s.WithinEarningPeriod(start.Add(-time.Second)) {
		t.Error("expected before the start to be outside")
	}

	unactivated := &Subscription{}
	if unactivated.WithinEarningPeriod(time.Now()) {
		t.Error("expected no period before activation")
	}
}
