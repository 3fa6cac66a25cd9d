package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
	"investment-platform/internal/infra/redis"
)

// PackageUseCase manages the investment catalog. Listings are served through a
// read-through cache; every mutation invalidates it. Edits never touch running
// subscriptions, which hold their own snapshot of the package terms.
type PackageUseCase interface {
	Create(ctx context.Context, name string, price float64, durationDays int, roiPercent float64) (*model.Package, error)
	Update(ctx context.Context, id, name string, price float64, durationDays int, roiPercent float64) (*model.Package, error)
	SetStatus(ctx context.Context, id string, status model.PackageStatus) error
	Get(ctx context.Context, id string) (*model.Package, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Package, error)
}

var _ PackageUseCase = (*packageUC)(nil)

type packageUC struct {
	repo  repository.PackageRepository
	cache *redis.PackageCache
	log   *zerolog.Logger
}

func NewPackageUseCase(
	repo repository.PackageRepository,
	cache *redis.PackageCache,
	logger *zerolog.Logger,
) *packageUC {
	return &packageUC{repo: repo, cache: cache, log: logger}
}

func (u *packageUC) Create(ctx context.Context, name string, price float64, durationDays int, roiPercent float64) (*model.Package, error) {
	pkg, err := model.NewPackage("", name, price, durationDays, roiPercent)
	if err != nil {
		return nil, err
	}
	if err := u.repo.Save(ctx, repository.NoTX, pkg); err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx)
	u.log.Info().Str("package_id", pkg.ID).Str("name", name).Msg("package created")
	return pkg, nil
}

func (u *packageUC) Update(ctx context.Context, id, name string, price float64, durationDays int, roiPercent float64) (*model.Package, error) {
	pkg, err := u.repo.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if _, err := model.NewPackage(id, name, price, durationDays, roiPercent); err != nil {
		return nil, err
	}
	pkg.Name = name
	pkg.Price = price
	pkg.DurationDays = durationDays
	pkg.ROIPercent = roiPercent
	pkg.UpdatedAt = time.Now()
	if err := u.repo.Save(ctx, repository.NoTX, pkg); err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx)
	return pkg, nil
}

func (u *packageUC) SetStatus(ctx context.Context, id string, status model.PackageStatus) error {
	pkg, err := u.repo.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	pkg.Status = status
	pkg.UpdatedAt = time.Now()
	if err := u.repo.Save(ctx, repository.NoTX, pkg); err != nil {
		return err
	}
	u.cache.Invalidate(ctx)
	return nil
}

func (u *packageUC) Get(ctx context.Context, id string) (*model.Package, error) {
	return u.repo.FindByID(ctx, repository.NoTX, id)
}

func (u *packageUC) List(ctx context.Context, activeOnly bool) ([]*model.Package, error) {
	if pkgs, ok := u.cache.GetList(ctx, activeOnly); ok {
		return pkgs, nil
	}
	pkgs, err := u.repo.List(ctx, repository.NoTX, activeOnly)
	if err != nil {
		return nil, err
	}
	u.cache.SetList(ctx, activeOnly, pkgs)
	return pkgs, nil
}
