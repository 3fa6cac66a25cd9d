package model

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"investment-platform/internal/domain"

	"github.com/google/uuid"
)

// GiftCode is a one-shot wallet credit. Codes follow the PREFIX-NNNN scheme;
// collisions are handled by insert-and-retry at the store layer.
type GiftCode struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Amount     float64    `json:"amount"`
	IsActive   bool       `json:"is_active"`
	IsRedeemed bool       `json:"is_redeemed"`
	RedeemedBy *string    `json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

func NewGiftCode(prefix string, amount float64, expiresAt time.Time) (*GiftCode, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if expiresAt.Before(time.Now()) {
		return nil, domain.ErrInvalidArgument
	}
	code, err := generateGiftCode(prefix)
	if err != nil {
		return nil, err
	}
	return &GiftCode{
		ID:        uuid.NewString(),
		Code:      code,
		Amount:    amount,
		IsActive:  true,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

// Regenerate draws a new code after a unique-violation on insert.
func (g *GiftCode) Regenerate(prefix string) error {
	code, err := generateGiftCode(prefix)
	if err != nil {
		return err
	}
	g.Code = code
	return nil
}

func generateGiftCode(prefix string) (string, error) {
	if prefix == "" {
		prefix = "GIFT"
	}
	b := make([]byte, 2)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	n := (int(b[0])<<8 | int(b[1])) % 10000
	return fmt.Sprintf("%s-%04d", prefix, n), nil
}
