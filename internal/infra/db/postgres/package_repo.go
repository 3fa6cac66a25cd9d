package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.PackageRepository = (*PackageRepo)(nil)

type PackageRepo struct {
	pool *pgxpool.Pool
}

func NewPackageRepo(pool *pgxpool.Pool) *PackageRepo {
	return &PackageRepo{pool: pool}
}

func (r *PackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	const q = `
INSERT INTO packages (id, name, price, duration_days, roi_percent, status, subscribers, total_revenue, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  name=$2, price=$3, duration_days=$4, roi_percent=$5, status=$6, updated_at=$10;
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		p.ID, p.Name, p.Price, p.DurationDays, p.ROIPercent, p.Status,
		p.Subscribers, p.TotalRevenue, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `
SELECT id, name, price, duration_days, roi_percent, status, subscribers, total_revenue, created_at, updated_at
  FROM packages WHERE id=$1`, id)
	var p model.Package
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.ROIPercent, &p.Status,
		&p.Subscribers, &p.TotalRevenue, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *PackageRepo) List(ctx context.Context, tx repository.Tx, activeOnly bool) ([]*model.Package, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := `
SELECT id, name, price, duration_days, roi_percent, status, subscribers, total_revenue, created_at, updated_at
  FROM packages`
	if activeOnly {
		q += ` WHERE status='active'`
	}
	q += ` ORDER BY price ASC`
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Package
	for rows.Next() {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.ROIPercent, &p.Status,
			&p.Subscribers, &p.TotalRevenue, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PackageRepo) IncrementCounters(ctx context.Context, tx repository.Tx, id string, revenue float64) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `
UPDATE packages SET subscribers = subscribers + 1, total_revenue = total_revenue + $2, updated_at = now()
 WHERE id=$1`, id, revenue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PackageRepo) SumRevenue(ctx context.Context, tx repository.Tx) (float64, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var sum float64
	err = ex.QueryRow(ctx, `SELECT COALESCE(SUM(total_revenue), 0) FROM packages`).Scan(&sum)
	return sum, err
}
