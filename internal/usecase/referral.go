package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/metrics"
)

// ReferralDispatcher pays upline commissions. Both hooks run inside the
// caller's transaction so a commission can never be paid without the event
// that earned it committing too.
//
// Rules: 15% of the package price when a referred user's FIRST subscription
// activates, and 5% of every daily yield the referred user claims (percentages
// come from config).
type ReferralDispatcher struct {
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	wallet WalletUseCase
	notes  NotificationUseCase

	purchasePercent float64
	yieldPercent    float64
	currency        string
	log             *zerolog.Logger
}

func NewReferralDispatcher(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	wallet WalletUseCase,
	notes NotificationUseCase,
	purchasePercent, yieldPercent float64,
	currency string,
	logger *zerolog.Logger,
) *ReferralDispatcher {
	return &ReferralDispatcher{
		users:           users,
		subs:            subs,
		wallet:          wallet,
		notes:           notes,
		purchasePercent: purchasePercent,
		yieldPercent:    yieldPercent,
		currency:        currency,
		log:             logger,
	}
}

// OnPurchaseActivated pays the one-time bonus for the buyer's first activated
// subscription. The activated-count check happens inside the same transaction
// that flipped this subscription active, so the count includes it: exactly 1
// means this is the first.
func (d *ReferralDispatcher) OnPurchaseActivated(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	buyer, err := d.users.FindByID(ctx, tx, sub.UserID)
	if err != nil {
		return err
	}
	if buyer.ReferrerID == nil {
		return nil
	}
	n, err := d.subs.CountActivatedByUser(ctx, tx, sub.UserID)
	if err != nil {
		return err
	}
	if n != 1 {
		return nil
	}

	bonus := sub.Price * d.purchasePercent / 100
	desc := fmt.Sprintf("referral bonus: %s purchased %s", buyer.FullName, sub.PackageName)
	if _, err := d.wallet.Post(ctx, tx, *buyer.ReferrerID, model.EntryReferralBonus, bonus, desc); err != nil {
		return err
	}
	body := fmt.Sprintf("You earned %s %.2f because %s made their first investment.", d.currency, bonus, buyer.FullName)
	if err := d.notes.NotifyUser(ctx, tx, *buyer.ReferrerID, model.NotificationReferralBonus, "Referral bonus", body); err != nil {
		return err
	}
	metrics.ObserveCommission("purchase", bonus)
	d.log.Info().Str("referrer_id", *buyer.ReferrerID).Str("user_id", buyer.ID).
		Float64("bonus", bonus).Msg("referral purchase bonus paid")
	return nil
}

// OnYieldClaimed pays the recurring cut of a referred user's daily yield.
func (d *ReferralDispatcher) OnYieldClaimed(ctx context.Context, tx repository.Tx, sub *model.Subscription, yieldAmount float64) error {
	claimer, err := d.users.FindByID(ctx, tx, sub.UserID)
	if err != nil {
		return err
	}
	if claimer.ReferrerID == nil {
		return nil
	}

	cut := yieldAmount * d.yieldPercent / 100
	desc := fmt.Sprintf("subordinate income: %s claimed daily yield on %s", claimer.FullName, sub.PackageName)
	if _, err := d.wallet.Post(ctx, tx, *claimer.ReferrerID, model.EntrySubordinateIncome, cut, desc); err != nil {
		return err
	}
	body := fmt.Sprintf("You earned %s %.2f from %s's daily income.", d.currency, cut, claimer.FullName)
	if err := d.notes.NotifyUser(ctx, tx, *claimer.ReferrerID, model.NotificationSubordinateIncome, "Team income", body); err != nil {
		return err
	}
	metrics.ObserveCommission("yield", cut)
	return nil
}
