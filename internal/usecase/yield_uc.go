package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/logging"
	"investment-platform/internal/infra/metrics"
)

// YieldUseCase pays the once-per-day manual claim on an active subscription.
//
// The amount always comes from the subscription's purchase-time snapshot, and
// the (subscription, day) uniqueness is enforced by the insert itself, so a
// burst of concurrent claims pays at most once.
type YieldUseCase interface {
	Claim(ctx context.Context, userID, subscriptionID string) (*model.DailyYield, error)
	History(ctx context.Context, userID string, offset, limit int) ([]*model.DailyYield, error)
}

var _ YieldUseCase = (*yieldUC)(nil)

type yieldUC struct {
	subs     repository.SubscriptionRepository
	yields   repository.DailyYieldRepository
	wallet   WalletUseCase
	referral *ReferralDispatcher
	tm       repository.TransactionManager

	currency string
	loc      *time.Location
	log      *zerolog.Logger
}

func NewYieldUseCase(
	subs repository.SubscriptionRepository,
	yields repository.DailyYieldRepository,
	wallet WalletUseCase,
	referral *ReferralDispatcher,
	tm repository.TransactionManager,
	currency string,
	loc *time.Location,
	logger *zerolog.Logger,
) *yieldUC {
	return &yieldUC{
		subs:     subs,
		yields:   yields,
		wallet:   wallet,
		referral: referral,
		tm:       tm,
		currency: currency,
		loc:      loc,
		log:      logger,
	}
}

func (u *yieldUC) Claim(ctx context.Context, userID, subscriptionID string) (*model.DailyYield, error) {
	defer logging.TraceDuration(logging.With(ctx, u.log), "YieldUC.Claim")()

	var paid *model.DailyYield
	err := u.tm.WithUserLock(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.UserID != userID {
			return domain.ErrForbidden
		}
		if sub.Status != model.SubscriptionStatusActive {
			return domain.ErrSubscriptionNotActive
		}

		now := time.Now().In(u.loc)
		if !sub.WithinEarningPeriod(now) {
			// Earning window is over; finish the subscription on this touch.
			if sub.EndAt != nil && !now.Before(*sub.EndAt) {
				if _, terr := u.subs.TransitionStatus(ctx, tx, sub.ID,
					model.SubscriptionStatusActive, model.SubscriptionStatusCompleted, nil, ""); terr != nil {
					return terr
				}
			}
			return domain.ErrSubscriptionExpired
		}

		day := truncateToDay(now, u.loc)
		amount := sub.DailyIncome()
		y := model.NewDailyYield(sub, day, amount)
		inserted, err := u.yields.InsertUnique(ctx, tx, y)
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrAlreadyClaimedToday
		}

		desc := fmt.Sprintf("daily income from %s", sub.PackageName)
		if _, err := u.wallet.Post(ctx, tx, userID, model.EntryDailyYield, amount, desc); err != nil {
			return err
		}
		if err := u.subs.RecordYield(ctx, tx, sub.ID, amount, day); err != nil {
			return err
		}
		if err := u.referral.OnYieldClaimed(ctx, tx, sub, amount); err != nil {
			return err
		}

		paidDays, err := u.yields.CountPaidBySubscription(ctx, tx, sub.ID)
		if err != nil {
			return err
		}
		if paidDays >= sub.DurationDays {
			if _, err := u.subs.TransitionStatus(ctx, tx, sub.ID,
				model.SubscriptionStatusActive, model.SubscriptionStatusCompleted, nil, ""); err != nil {
				return err
			}
		}
		paid = y
		return nil
	})
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, domain.ErrAlreadyClaimedToday) {
			outcome = "duplicate"
		}
		metrics.IncYieldClaim(outcome)
		return nil, err
	}
	metrics.IncYieldClaim("paid")
	metrics.AddYieldPaid(paid.Amount)
	u.log.Info().Str("user_id", userID).Str("subscription_id", subscriptionID).
		Float64("amount", paid.Amount).Msg("daily yield claimed")
	return paid, nil
}

func (u *yieldUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.DailyYield, error) {
	return u.yields.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}
