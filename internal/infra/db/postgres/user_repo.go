package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"investment-platform/internal/domain"
	"investment-platform/internal/domain/model"
	"investment-platform/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `
  id, phone, full_name, password_hash, pin_hash, referral_code, referrer_id,
  is_admin, registered_at, last_active_at,
  balance, available, total_invested, total_returns`

func (r *UserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, phone, full_name, password_hash, pin_hash, referral_code, referrer_id,
  is_admin, registered_at, last_active_at,
  balance, available, total_invested, total_returns
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
  phone=$2, full_name=$3, password_hash=$4, pin_hash=$5,
  is_admin=$8, last_active_at=$10;
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		u.ID, u.Phone, u.FullName, u.PasswordHash, u.PINHash, u.ReferralCode, u.ReferrerID,
		u.IsAdmin, u.RegisteredAt, u.LastActiveAt,
		u.Wallet.Balance, u.Wallet.Available, u.Wallet.TotalInvested, u.Wallet.TotalReturns,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepo) findOne(ctx context.Context, tx repository.Tx, where string, arg interface{}) (*model.User, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE `+where, arg)
	var u model.User
	if err := row.Scan(
		&u.ID, &u.Phone, &u.FullName, &u.PasswordHash, &u.PINHash, &u.ReferralCode, &u.ReferrerID,
		&u.IsAdmin, &u.RegisteredAt, &u.LastActiveAt,
		&u.Wallet.Balance, &u.Wallet.Available, &u.Wallet.TotalInvested, &u.Wallet.TotalReturns,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return r.findOne(ctx, tx, `id=$1`, id)
}

func (r *UserRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.User, error) {
	return r.findOne(ctx, tx, `phone=$1`, phone)
}

func (r *UserRepo) FindByReferralCode(ctx context.Context, tx repository.Tx, code string) (*model.User, error) {
	return r.findOne(ctx, tx, `referral_code=$1`, code)
}

func (r *UserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT`+userColumns+` FROM users ORDER BY registered_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Phone, &u.FullName, &u.PasswordHash, &u.PINHash, &u.ReferralCode, &u.ReferrerID,
			&u.IsAdmin, &u.RegisteredAt, &u.LastActiveAt,
			&u.Wallet.Balance, &u.Wallet.Available, &u.Wallet.TotalInvested, &u.Wallet.TotalReturns,
		); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *UserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepo) CountReferredBy(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE referrer_id=$1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count referred: %w", err)
	}
	return n, nil
}

func (r *UserRepo) SetPINHash(ctx context.Context, tx repository.Tx, userID, pinHash string) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE users SET pin_hash=$2 WHERE id=$1`, userID, pinHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyEntry is the one place wallet figures change for ledger postings. The
// guards in the WHERE clause reject any update that would drive a figure
// negative, so an insufficient balance surfaces as zero rows, never as a
// partially applied write.
func (r *UserRepo) ApplyEntry(ctx context.Context, tx repository.Tx, userID string, amount float64, consumeHold bool, investedDelta, returnsDelta float64) (float64, float64, error) {
	const q = `
UPDATE users SET
  balance        = balance + $2,
  available      = available + CASE WHEN $3 THEN 0 ELSE $2 END,
  total_invested = total_invested + $4,
  total_returns  = total_returns + $5
WHERE id = $1
  AND balance + $2 >= 0
  AND available + CASE WHEN $3 THEN 0 ELSE $2 END >= 0
RETURNING balance, available;
`
	ex, err := pick(r.pool, tx)
	if err != nil {
		return 0, 0, err
	}
	var balance, available float64
	if err := ex.QueryRow(ctx, q, userID, amount, consumeHold, investedDelta, returnsDelta).Scan(&balance, &available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the user does not exist or the guard rejected the delta.
			if _, ferr := r.FindByID(ctx, tx, userID); ferr != nil {
				return 0, 0, ferr
			}
			return 0, 0, domain.ErrInsufficientBalance
		}
		return 0, 0, domain.ErrReadDatabaseRow
	}
	return balance, available, nil
}

func (r *UserRepo) Hold(ctx context.Context, tx repository.Tx, userID string, amount float64) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx,
		`UPDATE users SET available = available - $2 WHERE id=$1 AND available >= $2`,
		userID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, ferr := r.FindByID(ctx, tx, userID); ferr != nil {
			return ferr
		}
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (r *UserRepo) ReleaseHold(ctx context.Context, tx repository.Tx, userID string, amount float64) error {
	ex, err := pick(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx,
		`UPDATE users SET available = available + $2 WHERE id=$1 AND balance >= available + $2`,
		userID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
