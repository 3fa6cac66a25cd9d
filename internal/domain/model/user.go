package model

import (
	"crypto/rand"
	"io"
	"time"

	"investment-platform/internal/domain"

	"github.com/google/uuid"
)

// Wallet holds the balance figures embedded on the user row.
//
// `Available` is the authoritative spendable figure. `Balance` is the total
// including funds held for pending withdrawals, so at all times
// Balance == Available + sum(pending withdrawal holds).
type Wallet struct {
	Balance       float64 `json:"balance"`
	Available     float64 `json:"available"`
	TotalInvested float64 `json:"total_invested"`
	TotalReturns  float64 `json:"total_returns"`
}

// User is a platform member. ReferrerID is set once at signup from a referral
// code and never changed afterwards.
type User struct {
	ID           string     `json:"id"`
	Phone        string     `json:"phone"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	PINHash      *string    `json:"-"` // withdrawal PIN, set on first withdrawal
	ReferralCode string     `json:"referral_code"`
	ReferrerID   *string    `json:"referrer_id,omitempty"`
	IsAdmin      bool       `json:"is_admin"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	Wallet       Wallet     `json:"wallet"`
}

func NewUser(id, phone, fullName, passwordHash string, referrerID *string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if phone == "" || fullName == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	code, err := generateReferralCode()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &User{
		ID:           id,
		Phone:        phone,
		FullName:     fullName,
		PasswordHash: passwordHash,
		ReferralCode: code,
		ReferrerID:   referrerID,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

// HasPIN reports whether the user has completed the first-withdrawal PIN setup.
func (u *User) HasPIN() bool { return u.PINHash != nil && *u.PINHash != "" }

// generateReferralCode creates a short shareable code.
// The character set avoids ambiguous characters like O/0, I/1, l.
func generateReferralCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 8

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
