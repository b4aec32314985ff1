package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/model"
	memrepo "github.com/restoinsight/insights-server/internal/repository/memory"
	"github.com/restoinsight/insights-server/internal/testutil"
	"github.com/restoinsight/insights-server/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockMailer mocks the Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerification(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func newAuth(accounts model.AccountStore, mailer model.Mailer) *Auth {
	a := NewAuth(accounts, token.NewJWT("test-secret", time.Hour), mailer, testutil.MakeNoopLogger())
	a.hashCost = bcrypt.MinCost
	return a
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()
	accounts := memrepo.NewAccountRepository()
	mailer := &MockMailer{}
	var sentToken string
	mailer.On("SendVerification", mock.Anything, "chef@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { sentToken = args.String(2) }).
		Return(nil)
	a := newAuth(accounts, mailer)

	acc, err := a.Register(ctx, " Chef@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", acc.Email)
	assert.False(t, acc.Verified)
	assert.Equal(t, model.TierFree, acc.Tier)
	assert.NoError(t, bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte("correct-horse")))
	mailer.AssertExpectations(t)

	require.NoError(t, a.Verify(ctx, sentToken))
	stored, err := accounts.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
}

func TestAuth_Register_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid email", func(t *testing.T) {
		_, err := newAuth(memrepo.NewAccountRepository(), &MockMailer{}).Register(ctx, "not-an-email", "long-enough")
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := newAuth(memrepo.NewAccountRepository(), &MockMailer{}).Register(ctx, "a@example.com", "short")
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("email taken", func(t *testing.T) {
		mailer := &MockMailer{}
		mailer.On("SendVerification", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		a := newAuth(memrepo.NewAccountRepository(), mailer)

		_, err := a.Register(ctx, "a@example.com", "long-enough")
		require.NoError(t, err)
		_, err = a.Register(ctx, "A@example.com", "long-enough")
		assert.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("mail failure keeps account", func(t *testing.T) {
		accounts := memrepo.NewAccountRepository()
		mailer := &MockMailer{}
		mailer.On("SendVerification", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		acc, err := newAuth(accounts, mailer).Register(ctx, "a@example.com", "long-enough")
		require.NoError(t, err)
		_, err = accounts.GetByID(ctx, acc.ID)
		assert.NoError(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &MockAccountStore{}
		store.On("Create", mock.Anything, mock.Anything).Return(model.Account{}, errors.New("db down"))

		_, err := newAuth(store, &MockMailer{}).Register(ctx, "a@example.com", "long-enough")
		assert.ErrorIs(t, err, model.ErrStorage)
	})
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	accounts := memrepo.NewAccountRepository()
	mailer := &MockMailer{}
	mailer.On("SendVerification", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	a := newAuth(accounts, mailer)
	acc, err := a.Register(ctx, "a@example.com", "long-enough")
	require.NoError(t, err)

	tok, err := a.Login(ctx, "A@Example.com", "long-enough")
	require.NoError(t, err)
	id, err := a.tokenManager.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id)

	_, err = a.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrBadCredentials)

	_, err = a.Login(ctx, "nobody@example.com", "long-enough")
	assert.ErrorIs(t, err, model.ErrBadCredentials)
}

func TestAuth_Verify_Errors(t *testing.T) {
	ctx := context.Background()
	a := newAuth(memrepo.NewAccountRepository(), &MockMailer{})

	assert.ErrorIs(t, a.Verify(ctx, "garbage"), model.ErrInvalidToken)

	access, err := a.tokenManager.GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	assert.ErrorIs(t, a.Verify(ctx, access), model.ErrInvalidToken)

	orphan, err := a.tokenManager.GenerateVerificationToken(uuid.New())
	require.NoError(t, err)
	assert.ErrorIs(t, a.Verify(ctx, orphan), model.ErrInvalidToken)
}
