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
	"investment-platform/internal/infra/metrics"
)

const mintRetries = 5

// GiftCodeUseCase mints one-shot promo codes and redeems them into wallets.
// Redemption is first-come-first-served: the store claims the code and the
// wallet credit commit in one transaction.
type GiftCodeUseCase interface {
	Mint(ctx context.Context, amount float64, expiresAt time.Time) (*model.GiftCode, error)
	Redeem(ctx context.Context, userID, code string) (*model.GiftCode, error)
	List(ctx context.Context, offset, limit int) ([]*model.GiftCode, error)
}

var _ GiftCodeUseCase = (*giftCodeUC)(nil)

type giftCodeUC struct {
	codes  repository.GiftCodeRepository
	wallet WalletUseCase
	notes  NotificationUseCase
	tm     repository.TransactionManager

	prefix   string
	currency string
	log      *zerolog.Logger
}

func NewGiftCodeUseCase(
	codes repository.GiftCodeRepository,
	wallet WalletUseCase,
	notes NotificationUseCase,
	tm repository.TransactionManager,
	prefix, currency string,
	logger *zerolog.Logger,
) *giftCodeUC {
	return &giftCodeUC{
		codes:    codes,
		wallet:   wallet,
		notes:    notes,
		tm:       tm,
		prefix:   prefix,
		currency: currency,
		log:      logger,
	}
}

// Mint draws codes until the insert lands. The code space is small (4 digits)
// so collisions are expected under load; retrying with a fresh draw is enough.
func (u *giftCodeUC) Mint(ctx context.Context, amount float64, expiresAt time.Time) (*model.GiftCode, error) {
	g, err := model.NewGiftCode(u.prefix, amount, expiresAt)
	if err != nil {
		return nil, err
	}
	for i := 0; i < mintRetries; i++ {
		err = u.codes.Insert(ctx, repository.NoTX, g)
		if err == nil {
			u.log.Info().Str("code", g.Code).Float64("amount", amount).Msg("gift code minted")
			return g, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		if err := g.Regenerate(u.prefix); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("mint gift code: %w", domain.ErrAlreadyExists)
}

func (u *giftCodeUC) Redeem(ctx context.Context, userID, code string) (*model.GiftCode, error) {
	var claimed *model.GiftCode
	err := u.tm.WithUserLock(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		var err error
		claimed, err = u.codes.Claim(ctx, tx, code, userID, time.Now())
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("gift code %s", claimed.Code)
		if _, err := u.wallet.Post(ctx, tx, userID, model.EntryGiftCode, claimed.Amount, desc); err != nil {
			return err
		}
		body := fmt.Sprintf("Gift code %s credited %s %.2f to your wallet.", claimed.Code, u.currency, claimed.Amount)
		return u.notes.NotifyUser(ctx, tx, userID, model.NotificationGiftCode, "Gift code redeemed", body)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncGiftRedemption()
	u.log.Info().Str("user_id", userID).Str("code", code).Msg("gift code redeemed")
	return claimed, nil
}

func (u *giftCodeUC) List(ctx context.Context, offset, limit int) ([]*model.GiftCode, error) {
	return u.codes.List(ctx, repository.NoTX, offset, limit)
}
