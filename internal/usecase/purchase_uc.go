package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/logging"
	"investment-platform/internal/infra/metrics"
)

// PurchaseUseCase runs the subscription lifecycle.
//
// Wallet purchases activate inside a single per-user locked transaction: debit,
// subscription row, package counters and referral bonus commit or roll back
// together. M-Pesa purchases go through pending_payment -> pending -> admin
// decision instead, with money only moving on approval (and on the M-Pesa rail
// itself, outside this system).
type PurchaseUseCase interface {
	PurchaseWithWallet(ctx context.Context, userID, packageID string) (*model.Subscription, error)
	PurchaseWithMpesa(ctx context.Context, userID, packageID string) (*model.Subscription, error)
	SubmitConfirmation(ctx context.Context, userID, subscriptionID, message string) (*model.Subscription, error)
	Approve(ctx context.Context, adminID, subscriptionID string) error
	Reject(ctx context.Context, adminID, subscriptionID, notes string) error

	Get(ctx context.Context, id string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
	ListPendingReview(ctx context.Context, offset, limit int) ([]*model.Subscription, error)
	ExpireOverdue(ctx context.Context) (int, error)
}

var _ PurchaseUseCase = (*purchaseUC)(nil)

type purchaseUC struct {
	subs     repository.SubscriptionRepository
	packages repository.PackageRepository
	yields   repository.DailyYieldRepository
	wallet   WalletUseCase
	referral *ReferralDispatcher
	notes    NotificationUseCase
	tm       repository.TransactionManager

	pendingTTL time.Duration
	currency   string
	loc        *time.Location
	log        *zerolog.Logger
}

func NewPurchaseUseCase(
	subs repository.SubscriptionRepository,
	packages repository.PackageRepository,
	yields repository.DailyYieldRepository,
	wallet WalletUseCase,
	referral *ReferralDispatcher,
	notes NotificationUseCase,
	tm repository.TransactionManager,
	pendingTTL time.Duration,
	currency string,
	loc *time.Location,
	logger *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{
		subs:       subs,
		packages:   packages,
		yields:     yields,
		wallet:     wallet,
		referral:   referral,
		notes:      notes,
		tm:         tm,
		pendingTTL: pendingTTL,
		currency:   currency,
		loc:        loc,
		log:        logger,
	}
}

func (u *purchaseUC) activePackage(ctx context.Context, tx repository.Tx, packageID string) (*model.Package, error) {
	pkg, err := u.packages.FindByID(ctx, tx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive() {
		return nil, domain.ErrPackageInactive
	}
	return pkg, nil
}

// activate performs the side effects shared by the wallet path and the admin
// approval path: package counters, the activation-day yield marker (so the
// first payout lands the following day) and the first-purchase referral bonus.
func (u *purchaseUC) activate(ctx context.Context, tx repository.Tx, sub *model.Subscription, now time.Time) error {
	if err := u.packages.IncrementCounters(ctx, tx, sub.PackageID, sub.Price); err != nil {
		return err
	}
	day := truncateToDay(now, u.loc)
	if _, err := u.yields.InsertUnique(ctx, tx, model.NewDailyYield(sub, day, 0)); err != nil {
		return err
	}
	return u.referral.OnPurchaseActivated(ctx, tx, sub)
}

func (u *purchaseUC) PurchaseWithWallet(ctx context.Context, userID, packageID string) (*model.Subscription, error) {
	defer logging.TraceDuration(logging.With(ctx, u.log), "PurchaseUC.PurchaseWithWallet")()

	var sub *model.Subscription
	err := u.tm.WithUserLock(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		pkg, err := u.activePackage(ctx, tx, packageID)
		if err != nil {
			return err
		}
		sub, err = model.NewSubscription("", userID, pkg, model.PaymentMethodWallet, u.pendingTTL)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("investment in %s", pkg.Name)
		if _, err := u.wallet.Post(ctx, tx, userID, model.EntryInvestment, -pkg.Price, desc); err != nil {
			return err
		}
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		return u.activate(ctx, tx, sub, time.Now().In(u.loc))
	})
	if err != nil {
		metrics.IncPurchase("wallet", "failed")
		return nil, err
	}
	metrics.IncPurchase("wallet", "active")
	u.log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).
		Float64("price", sub.Price).Msg("wallet purchase activated")
	return sub, nil
}

func (u *purchaseUC) PurchaseWithMpesa(ctx context.Context, userID, packageID string) (*model.Subscription, error) {
	pkg, err := u.activePackage(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}
	sub, err := model.NewSubscription("", userID, pkg, model.PaymentMethodMpesa, u.pendingTTL)
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	metrics.IncPurchase("mpesa", "pending_payment")
	u.log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).
		Time("expires_at", *sub.ExpiresAt).Msg("mpesa purchase awaiting payment")
	return sub, nil
}

// SubmitConfirmation attaches the M-Pesa confirmation SMS text and moves the
// purchase into the admin review queue. Late submissions (past the payment
// window) are rejected even if the sweeper has not run yet.
func (u *purchaseUC) SubmitConfirmation(ctx context.Context, userID, subscriptionID, message string) (*model.Subscription, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: confirmation message required", domain.ErrInvalidArgument)
	}
	var sub *model.Subscription
	err := u.tm.WithTx(ctx, defaultTxOptions, func(ctx context.Context, tx repository.Tx) error {
		var err error
		sub, err = u.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.UserID != userID {
			return domain.ErrForbidden
		}
		if sub.ExpiresAt != nil && time.Now().After(*sub.ExpiresAt) {
			_, terr := u.subs.TransitionStatus(ctx, tx, sub.ID,
				model.SubscriptionStatusPendingPayment, model.SubscriptionStatusExpired, nil, "payment window lapsed")
			if terr != nil {
				return terr
			}
			return domain.ErrSubscriptionExpired
		}
		moved, err := u.subs.TransitionStatus(ctx, tx, sub.ID,
			model.SubscriptionStatusPendingPayment, model.SubscriptionStatusPending, nil, "")
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrInvalidTransition
		}
		sub.Status = model.SubscriptionStatusPending
		sub.ConfirmationMessage = message
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		body := fmt.Sprintf("%s %.2f purchase of %s awaits review (subscription %s).",
			u.currency, sub.Price, sub.PackageName, sub.ID)
		return u.notes.NotifyAdmin(ctx, tx, model.NotificationSubscription, "M-Pesa purchase to review", body)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (u *purchaseUC) Approve(ctx context.Context, adminID, subscriptionID string) error {
	defer logging.TraceDuration(logging.With(ctx, u.log), "PurchaseUC.Approve")()

	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return err
	}
	err = u.tm.WithUserLock(ctx, sub.UserID, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.subs.TransitionStatus(ctx, tx, sub.ID,
			model.SubscriptionStatusPending, model.SubscriptionStatusActive, &adminID, "")
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrInvalidTransition
		}
		now := time.Now().In(u.loc)
		sub.Activate(now)
		sub.ProcessedBy = &adminID
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if err := u.activate(ctx, tx, sub, now); err != nil {
			return err
		}
		body := fmt.Sprintf("Your %s investment is active. Daily income: %s %.2f.",
			sub.PackageName, u.currency, sub.DailyIncome())
		return u.notes.NotifyUser(ctx, tx, sub.UserID, model.NotificationSubscription, "Investment approved", body)
	})
	if err != nil {
		return err
	}
	metrics.IncPurchase("mpesa", "active")
	return nil
}

func (u *purchaseUC) Reject(ctx context.Context, adminID, subscriptionID, notes string) error {
	sub, err := u.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return err
	}
	err = u.tm.WithTx(ctx, defaultTxOptions, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.subs.TransitionStatus(ctx, tx, sub.ID,
			sub.Status, model.SubscriptionStatusRejected, &adminID, notes)
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrInvalidTransition
		}
		body := fmt.Sprintf("Your %s purchase was rejected. %s", sub.PackageName, notes)
		return u.notes.NotifyUser(ctx, tx, sub.UserID, model.NotificationSubscription, "Investment rejected", body)
	})
	if err != nil {
		return err
	}
	metrics.IncPurchase(string(sub.PaymentMethod), "rejected")
	return nil
}

func (u *purchaseUC) Get(ctx context.Context, id string) (*model.Subscription, error) {
	return u.subs.FindByID(ctx, repository.NoTX, id)
}

func (u *purchaseUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return u.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (u *purchaseUC) ListPendingReview(ctx context.Context, offset, limit int) ([]*model.Subscription, error) {
	return u.subs.ListByStatus(ctx, repository.NoTX, model.SubscriptionStatusPending, offset, limit)
}

// ExpireOverdue sweeps pending_payment purchases whose window lapsed. Called
// periodically by the scheduler.
func (u *purchaseUC) ExpireOverdue(ctx context.Context) (int, error) {
	n, err := u.subs.ExpireOverduePending(ctx, repository.NoTX, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
		u.log.Info().Int("count", n).Msg("expired overdue pending payments")
	}
	return n, nil
}

// truncateToDay normalizes t to midnight in the platform timezone so all
// same-day claims collide on the unique (subscription, day) index.
func truncateToDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
