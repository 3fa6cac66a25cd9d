package model

import (
	"time"

	"investment-platform/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	// Awaiting M-Pesa payment; expires if no confirmation arrives in time.
	SubscriptionStatusPendingPayment SubscriptionStatus = "pending_payment"
	// Confirmation submitted; awaiting admin review.
	SubscriptionStatusPending SubscriptionStatus = "pending"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	// All daily yields paid out.
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusRejected  SubscriptionStatus = "rejected"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// transitions is the single source of truth for legal status moves. The
// original system checked ad-hoc status subsets per endpoint; every repo and
// use case here goes through CanTransition instead.
var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPendingPayment: {SubscriptionStatusPending, SubscriptionStatusRejected, SubscriptionStatusExpired},
	SubscriptionStatusPending:        {SubscriptionStatusActive, SubscriptionStatusRejected},
	SubscriptionStatusActive:         {SubscriptionStatusCompleted},
}

func CanTransition(from, to SubscriptionStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func (s SubscriptionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

type PaymentMethod string

const (
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodMpesa  PaymentMethod = "mpesa"
)

// Subscription is one user-package acquisition. Package fields are snapshotted
// at purchase time; daily income is always computed from the snapshot so later
// catalog edits never change the yield of running subscriptions.
type Subscription struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	PackageID    string  `json:"package_id"`
	PackageName  string  `json:"package_name"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	ROIPercent   float64 `json:"roi_percent"`

	PaymentMethod PaymentMethod      `json:"payment_method"`
	Status        SubscriptionStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	StartAt       *time.Time         `json:"start_at,omitempty"`
	EndAt         *time.Time         `json:"end_at,omitempty"`
	// ExpiresAt bounds the pending_payment window (M-Pesa path only).
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	TotalEarnings       float64    `json:"total_earnings"`
	LastYieldDate       *time.Time `json:"last_yield_date,omitempty"`
	ConfirmationMessage string     `json:"confirmation_message,omitempty"`

	ProcessedBy *string `json:"processed_by,omitempty"`
	AdminNotes  string  `json:"admin_notes,omitempty"`
}

// NewSubscription snapshots the package. Wallet purchases start active
// immediately; M-Pesa purchases start in pending_payment with an expiry window.
func NewSubscription(id, userID string, pkg *Package, method PaymentMethod, pendingTTL time.Duration) (*Subscription, error) {
	if userID == "" || pkg == nil {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	s := &Subscription{
		ID:            id,
		UserID:        userID,
		PackageID:     pkg.ID,
		PackageName:   pkg.Name,
		Price:         pkg.Price,
		DurationDays:  pkg.DurationDays,
		ROIPercent:    pkg.ROIPercent,
		PaymentMethod: method,
		CreatedAt:     now,
	}
	switch method {
	case PaymentMethodWallet:
		s.Status = SubscriptionStatusActive
		s.Activate(now)
	case PaymentMethodMpesa:
		s.Status = SubscriptionStatusPendingPayment
		exp := now.Add(pendingTTL)
		s.ExpiresAt = &exp
	default:
		return nil, domain.ErrInvalidArgument
	}
	return s, nil
}

// Activate stamps the earning period. Idempotent on the status field itself;
// callers gate the transition.
func (s *Subscription) Activate(now time.Time) {
	end := now.Add(time.Duration(s.DurationDays) * 24 * time.Hour)
	s.StartAt = &now
	s.EndAt = &end
	s.Status = SubscriptionStatusActive
}

// DailyIncome is computed from the purchase-time snapshot, never the live
// package row.
func (s *Subscription) DailyIncome() float64 {
	if s.DurationDays == 0 {
		return 0
	}
	return s.Price * s.ROIPercent / 100 / float64(s.DurationDays)
}

// WithinEarningPeriod reports whether a yield may still be claimed at t.
func (s *Subscription) WithinEarningPeriod(t time.Time) bool {
	if s.StartAt == nil || s.EndAt == nil {
		return false
	}
	return !t.Before(*s.StartAt) && t.Before(*s.EndAt)
}
