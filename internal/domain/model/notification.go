package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationReferralBonus     NotificationType = "referral_bonus"
	NotificationSubordinateIncome NotificationType = "subordinate_income"
	NotificationWithdrawal        NotificationType = "withdrawal"
	NotificationDeposit           NotificationType = "deposit"
	NotificationSubscription      NotificationType = "subscription"
	NotificationGiftCode          NotificationType = "gift_code"
)

// Notification is one inbox row. UserID is nil for admin-facing notifications
// (new pending requests etc.), which live in their own table.
type Notification struct {
	ID        string           `json:"id"`
	UserID    *string          `json:"user_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewUserNotification(userID string, t NotificationType, title, body string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    &userID,
		Type:      t,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
}

func NewAdminNotification(t NotificationType, title, body string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Type:      t,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
}
