package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{"id", "email", "password_hash", "verified", "tier", "quota_used", "quota_window_start", "created_at", "updated_at"}

func newMockConnection(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Connection{DB: db}, mock
}

func TestNewAccountRepository(t *testing.T) {
	db := &Connection{}
	repo := NewAccountRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestAccountRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	a := model.NewAccount("New@Example.com", []byte("hash"), now)

	t.Run("success", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`INSERT INTO accounts`).
			WithArgs(a.ID, "new@example.com", []byte("hash"), false, "free", 0, now, now, now).
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(a.ID, "new@example.com", []byte("hash"), false, "free", 0, now, now, now))

		saved, err := NewAccountRepository(conn).Create(context.Background(), a)
		require.NoError(t, err)
		assert.Equal(t, a.ID, saved.ID)
		assert.Equal(t, model.TierFree, saved.Tier)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`INSERT INTO accounts`).WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

		_, err := NewAccountRepository(conn).Create(context.Background(), a)
		assert.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("db error", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`INSERT INTO accounts`).WillReturnError(errors.New("db down"))

		_, err := NewAccountRepository(conn).Create(context.Background(), a)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create account")
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(id, "a@example.com", []byte("h"), true, "pro", 2, now, now, now))

		got, err := NewAccountRepository(conn).GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.TierPro, got.Tier)
		assert.True(t, got.Verified)
		assert.Equal(t, 2, got.QuotaUsed)
	})

	t.Run("not found", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(accountRowColumns))

		_, err := NewAccountRepository(conn).GetByID(context.Background(), id)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestAccountRepository_GetByEmail_Normalizes(t *testing.T) {
	conn, mock := newMockConnection(t)
	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
		WithArgs("chef@example.com").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err := NewAccountRepository(conn).GetByEmail(context.Background(), " Chef@Example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_MarkVerified(t *testing.T) {
	id := uuid.New()

	t.Run("updated", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectExec(`UPDATE accounts SET verified = TRUE`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewAccountRepository(conn).MarkVerified(context.Background(), id))
	})

	t.Run("missing", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectExec(`UPDATE accounts SET verified = TRUE`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewAccountRepository(conn).MarkVerified(context.Background(), id), model.ErrNotFound)
	})
}

func TestAccountRepository_ConsumeQuota(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	start := now.Add(-48 * time.Hour)

	t.Run("free account consumes", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`UPDATE accounts SET .+ WHERE id = \$1 AND tier = 'free' AND \(quota_window_start < \$2 OR quota_used < \$4\)`).
			WithArgs(id, quota.Threshold(now), now, quota.FreeLimit).
			WillReturnRows(sqlmock.NewRows([]string{"quota_used", "quota_window_start"}).AddRow(2, start))

		d, err := NewAccountRepository(conn).ConsumeQuota(context.Background(), id, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.True(t, d.Consumed)
		assert.Equal(t, 2, d.Used)
		assert.Equal(t, start, d.WindowStart)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("free account exhausted", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`UPDATE accounts SET`).WillReturnRows(sqlmock.NewRows([]string{"quota_used", "quota_window_start"}))
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(id, "a@example.com", []byte("h"), true, "free", 3, start, start, start))

		d, err := NewAccountRepository(conn).ConsumeQuota(context.Background(), id, now)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.False(t, d.Consumed)
		assert.Equal(t, model.DenyQuotaExceeded, d.Reason)
		assert.Equal(t, 3, d.Used)
	})

	t.Run("pro account bypasses", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`UPDATE accounts SET`).WillReturnRows(sqlmock.NewRows([]string{"quota_used", "quota_window_start"}))
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(id, "p@example.com", []byte("h"), true, "pro", 0, start, start, start))

		d, err := NewAccountRepository(conn).ConsumeQuota(context.Background(), id, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.False(t, d.Consumed)
	})

	t.Run("unknown account", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`UPDATE accounts SET`).WillReturnRows(sqlmock.NewRows([]string{"quota_used", "quota_window_start"}))
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1`).WillReturnRows(sqlmock.NewRows(accountRowColumns))

		_, err := NewAccountRepository(conn).ConsumeQuota(context.Background(), id, now)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery(`UPDATE accounts SET`).WillReturnError(errors.New("conn reset"))

		_, err := NewAccountRepository(conn).ConsumeQuota(context.Background(), id, now)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to consume quota")
	})
}

func TestAccountRepository_RefundQuota(t *testing.T) {
	id := uuid.New()
	start := time.Now().UTC()

	conn, mock := newMockConnection(t)
	mock.ExpectExec(`UPDATE accounts SET quota_used = quota_used - 1, updated_at = NOW\(\)\s+WHERE id = \$1 AND quota_window_start = \$2 AND quota_used > 0`).
		WithArgs(id, start).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewAccountRepository(conn).RefundQuota(context.Background(), id, start))
	assert.NoError(t, mock.ExpectationsWereMet())
}
