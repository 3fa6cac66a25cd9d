package usecase

import (
	"context"

	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

// PlatformStats is the admin dashboard snapshot.
type PlatformStats struct {
	Users               int            `json:"users"`
	ActiveSubscriptions int            `json:"active_subscriptions"`
	ActiveByPackage     map[string]int `json:"active_by_package"`
	PendingPurchases    int            `json:"pending_purchases"`
	PendingWithdrawals  int            `json:"pending_withdrawals"`
	PendingDeposits     int            `json:"pending_deposits"`
	TotalRevenue        float64        `json:"total_revenue"`
}

type StatsUseCase interface {
	Overview(ctx context.Context) (*PlatformStats, error)
}

var _ StatsUseCase = (*statsUC)(nil)

type statsUC struct {
	users       repository.UserRepository
	subs        repository.SubscriptionRepository
	packages    repository.PackageRepository
	withdrawals repository.WithdrawalRepository
	deposits    repository.DepositRepository
}

func NewStatsUseCase(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	packages repository.PackageRepository,
	withdrawals repository.WithdrawalRepository,
	deposits repository.DepositRepository,
) *statsUC {
	return &statsUC{users: users, subs: subs, packages: packages, withdrawals: withdrawals, deposits: deposits}
}

func (u *statsUC) Overview(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}
	var err error
	if stats.Users, err = u.users.CountUsers(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.ActiveSubscriptions, err = u.subs.CountByStatus(ctx, repository.NoTX, model.SubscriptionStatusActive); err != nil {
		return nil, err
	}
	if stats.ActiveByPackage, err = u.subs.CountActiveByPackage(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.PendingPurchases, err = u.subs.CountByStatus(ctx, repository.NoTX, model.SubscriptionStatusPending); err != nil {
		return nil, err
	}
	if stats.PendingWithdrawals, err = u.withdrawals.CountPending(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.PendingDeposits, err = u.deposits.CountPending(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if stats.TotalRevenue, err = u.packages.SumRevenue(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	return stats, nil
}
