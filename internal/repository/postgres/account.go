package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/quota"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

const accountColumns = `id, email, password_hash, verified, tier, quota_used, quota_window_start, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		account model.Account
		tier    string
	)
	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.Verified, &tier,
		&account.QuotaUsed, &account.QuotaWindowStart, &account.CreatedAt, &account.UpdatedAt,
	)
	account.Tier = model.Tier(tier)
	return account, err
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (` + accountColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.ID, model.NormalizeEmail(account.Email), account.PasswordHash, account.Verified, string(account.Tier),
		account.QuotaUsed, account.QuotaWindowStart, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return model.Account{}, model.ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, model.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE accounts SET verified = TRUE, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}

	return nil
}

// Pro and exhausted free accounts match no row; the follow-up read tells them apart.
func (r *AccountRepository) ConsumeQuota(ctx context.Context, id uuid.UUID, now time.Time) (model.QuotaDecision, error) {
	query := `UPDATE accounts SET
				quota_used = CASE WHEN quota_window_start < $2 THEN 1 ELSE quota_used + 1 END,
				quota_window_start = CASE WHEN quota_window_start < $2 THEN $3 ELSE quota_window_start END,
				updated_at = $3
			  WHERE id = $1 AND tier = 'free' AND (quota_window_start < $2 OR quota_used < $4)
			  RETURNING quota_used, quota_window_start`

	var decision model.QuotaDecision
	err := r.db.QueryRowContext(ctx, query, id, quota.Threshold(now), now, quota.FreeLimit).
		Scan(&decision.Used, &decision.WindowStart)
	if err == nil {
		decision.Allowed = true
		decision.Consumed = true
		return decision, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.QuotaDecision{}, fmt.Errorf("failed to consume quota: %w", err)
	}

	account, err := r.GetByID(ctx, id)
	if err != nil {
		return model.QuotaDecision{}, err
	}
	account = quota.Normalize(account, now)

	decision = model.QuotaDecision{
		WindowStart: account.QuotaWindowStart,
		Used:        account.QuotaUsed,
	}
	if account.Tier == model.TierPro {
		decision.Allowed = true
		return decision, nil
	}
	decision.Reason = model.DenyQuotaExceeded
	return decision, nil
}

func (r *AccountRepository) RefundQuota(ctx context.Context, id uuid.UUID, windowStart time.Time) error {
	query := `UPDATE accounts SET quota_used = quota_used - 1, updated_at = NOW()
			  WHERE id = $1 AND quota_window_start = $2 AND quota_used > 0`

	if _, err := r.db.ExecContext(ctx, query, id, windowStart); err != nil {
		return fmt.Errorf("failed to refund quota: %w", err)
	}

	return nil
}
