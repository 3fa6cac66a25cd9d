package model

import "time"

type EntryType string

const (
	EntryDeposit           EntryType = "deposit"
	EntryWithdrawal        EntryType = "withdrawal"
	EntryInvestment        EntryType = "investment"
	EntryDailyYield        EntryType = "daily_yield"
	EntryReferralBonus     EntryType = "referral_bonus"
	EntrySubordinateIncome EntryType = "subordinate_income"
	EntryGiftCode          EntryType = "gift_code"
	EntryAdminCredit       EntryType = "admin_credit"
	EntryAdminDebit        EntryType = "admin_debit"
	EntryRefund            EntryType = "refund"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryDeposit, EntryWithdrawal, EntryInvestment, EntryDailyYield,
		EntryReferralBonus, EntrySubordinateIncome, EntryGiftCode,
		EntryAdminCredit, EntryAdminDebit, EntryRefund:
		return true
	}
	return false
}

// Earning entry types count into Wallet.TotalReturns.
func (t EntryType) IsEarning() bool {
	switch t {
	case EntryDailyYield, EntryReferralBonus, EntrySubordinateIncome:
		return true
	}
	return false
}

// LedgerEntry is one line of the append-only wallet history. Amount is signed:
// credits positive, debits negative. BalanceAfter/AvailableAfter snapshot the
// wallet as of this entry, which makes the history auditable without replay.
type LedgerEntry struct {
	ID             string    `json:"id"` // ULID, lexically time-ordered
	UserID         string    `json:"user_id"`
	Type           EntryType `json:"type"`
	Amount         float64   `json:"amount"`
	Description    string    `json:"description"`
	BalanceAfter   float64   `json:"balance_after"`
	AvailableAfter float64   `json:"available_after"`
	CreatedAt      time.Time `json:"created_at"`
}
