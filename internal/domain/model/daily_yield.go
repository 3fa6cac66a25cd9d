package model

import (
	"time"

	"github.com/google/uuid"
)

// DailyYield marks that the yield for (subscription, calendar day) was paid.
// Rows are insert-only; uniqueness on (subscription_id, yield_date) is enforced
// by the storage layer, which is what makes the claim race-free.
type DailyYield struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	YieldDate      time.Time `json:"yield_date"` // day-truncated in platform timezone
	Amount         float64   `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewDailyYield(sub *Subscription, day time.Time, amount float64) *DailyYield {
	return &DailyYield{
		ID:             uuid.NewString(),
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		YieldDate:      day,
		Amount:         amount,
		CreatedAt:      time.Now(),
	}
}
