package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

const minPasswordLength = 6

// ReferralSummary aggregates a user's downline earnings for the profile page.
type ReferralSummary struct {
	Code               string  `json:"code"`
	ReferredCount      int     `json:"referred_count"`
	PurchaseBonusTotal float64 `json:"purchase_bonus_total"`
	YieldIncomeTotal   float64 `json:"yield_income_total"`
}

type UserUseCase interface {
	Register(ctx context.Context, phone, fullName, password, referralCode string) (*model.User, error)
	Authenticate(ctx context.Context, phone, password string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Referrals(ctx context.Context, userID string) (*ReferralSummary, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

var _ UserUseCase = (*userUC)(nil)

type userUC struct {
	users  repository.UserRepository
	ledger repository.LedgerRepository
	log    *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	ledger repository.LedgerRepository,
	logger *zerolog.Logger,
) *userUC {
	return &userUC{users: users, ledger: ledger, log: logger}
}

// Register creates the account and resolves the optional referral code to a
// referrer. An unknown code fails registration rather than being silently
// dropped, so typos surface immediately.
func (u *userUC) Register(ctx context.Context, phone, fullName, password, referralCode string) (*model.User, error) {
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password too short", domain.ErrInvalidArgument)
	}

	var referrerID *string
	if referralCode != "" {
		referrer, err := u.users.FindByReferralCode(ctx, repository.NoTX, referralCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown referral code", domain.ErrInvalidArgument)
			}
			return nil, err
		}
		referrerID = &referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", phone, fullName, string(hash), referrerID)
	if err != nil {
		return nil, err
	}
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", user.ID).Bool("referred", referrerID != nil).Msg("user registered")
	return user, nil
}

func (u *userUC) Authenticate(ctx context.Context, phone, password string) (*model.User, error) {
	user, err := u.users.FindByPhone(ctx, repository.NoTX, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	user.Touch()
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		u.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to stamp last activity")
	}
	return user, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Referrals(ctx context.Context, userID string) (*ReferralSummary, error) {
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	count, err := u.users.CountReferredBy(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	bonus, err := u.ledger.SumByUserAndTypes(ctx, repository.NoTX, userID, model.EntryReferralBonus)
	if err != nil {
		return nil, err
	}
	income, err := u.ledger.SumByUserAndTypes(ctx, repository.NoTX, userID, model.EntrySubordinateIncome)
	if err != nil {
		return nil, err
	}
	return &ReferralSummary{
		Code:               user.ReferralCode,
		ReferredCount:      count,
		PurchaseBonusTotal: bonus,
		YieldIncomeTotal:   income,
	}, nil
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	return u.users.CountUsers(ctx, repository.NoTX)
}
