package model

import (
	"time"

	"investment-platform/internal/domain"

	"github.com/google/uuid"
)

// RequestStatus is shared by withdrawal and deposit requests. Both are
// terminal after a single admin decision.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// WithdrawalRequest escrows funds at request time: the amount is moved out of
// Wallet.Available when the row is created, and either leaves Balance on
// approval or returns to Available on rejection. That keeps
// Balance == Available + holds and closes the double-spend window of
// approve-time-only deduction.
type WithdrawalRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Amount      float64       `json:"amount"`
	PhoneNumber string        `json:"phone_number"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
	ProcessedBy *string       `json:"processed_by,omitempty"`
	AdminNotes  string        `json:"admin_notes,omitempty"`
}

func NewWithdrawalRequest(userID string, amount float64, phone string) (*WithdrawalRequest, error) {
	if userID == "" || phone == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return &WithdrawalRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		PhoneNumber: phone,
		Status:      RequestStatusPending,
		RequestedAt: time.Now(),
	}, nil
}

// DepositRequest records a manual M-Pesa deposit claim. Nothing moves in the
// wallet until an admin approves it.
type DepositRequest struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"user_id"`
	Amount             float64       `json:"amount"`
	TransactionMessage string        `json:"transaction_message"`
	Status             RequestStatus `json:"status"`
	RequestedAt        time.Time     `json:"requested_at"`
	ProcessedAt        *time.Time    `json:"processed_at,omitempty"`
	ProcessedBy        *string       `json:"processed_by,omitempty"`
	AdminNotes         string        `json:"admin_notes,omitempty"`
}

func NewDepositRequest(userID string, amount float64, message string) (*DepositRequest, error) {
	if userID == "" || message == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return &DepositRequest{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Amount:             amount,
		TransactionMessage: message,
		Status:             RequestStatusPending,
		RequestedAt:        time.Now(),
	}, nil
}
