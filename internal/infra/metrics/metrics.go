package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Package purchases by payment method and outcome.",
		},
		[]string{"method", "status"},
	)

	yieldClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yield_claims_total",
			Help: "Daily yield claims by outcome (paid/duplicate/rejected).",
		},
		[]string{"outcome"},
	)

	yieldPaidAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "yield_paid_amount_total",
			Help: "Sum of daily yield amounts credited to wallets.",
		},
	)

	commissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_commissions_total",
			Help: "Referral commissions paid, by kind (purchase/yield).",
		},
		[]string{"kind"},
	)

	commissionsAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_commissions_amount_total",
			Help: "Sum of referral commission amounts, by kind.",
		},
		[]string{"kind"},
	)

	withdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_total",
			Help: "Withdrawal requests by status (requested/approved/rejected).",
		},
		[]string{"status"},
	)

	depositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deposits_total",
			Help: "Deposit requests by status (requested/approved/rejected).",
		},
		[]string{"status"},
	)

	giftRedemptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gift_code_redemptions_total",
			Help: "Successful gift code redemptions.",
		},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "pending_payment subscriptions swept by the expiry worker.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			purchasesTotal, yieldClaimsTotal, yieldPaidAmount,
			commissionsTotal, commissionsAmount,
			withdrawalsTotal, depositsTotal,
			giftRedemptionsTotal, subscriptionsExpired,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPurchase(method, status string) {
	purchasesTotal.WithLabelValues(norm(method), norm(status)).Inc()
}

func IncYieldClaim(outcome string) {
	yieldClaimsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddYieldPaid(amount float64) {
	yieldPaidAmount.Add(amount)
}

func ObserveCommission(kind string, amount float64) {
	commissionsTotal.WithLabelValues(norm(kind)).Inc()
	commissionsAmount.WithLabelValues(norm(kind)).Add(amount)
}

func IncWithdrawal(status string) {
	withdrawalsTotal.WithLabelValues(norm(status)).Inc()
}

func IncDeposit(status string) {
	depositsTotal.WithLabelValues(norm(status)).Inc()
}

func IncGiftRedemption() { giftRedemptionsTotal.Inc() }

func IncSubscriptionsExpired(n int) { subscriptionsExpired.Add(float64(n)) }
