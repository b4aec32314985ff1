package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type Auth struct {
	accounts     model.AccountStore
	tokenManager model.TokenManager
	mailer       model.Mailer
	logger       *logger.Logger
	hashCost     int
	now          func() time.Time
}

func NewAuth(
	accounts model.AccountStore,
	tokenManager model.TokenManager,
	mailer model.Mailer,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		accounts:     accounts,
		tokenManager: tokenManager,
		mailer:       mailer,
		logger:       logger,
		hashCost:     bcrypt.DefaultCost,
		now:          time.Now,
	}
}

// A failed delivery is logged and does not undo the registration.
func (a *Auth) Register(ctx context.Context, email, password string) (model.Account, error) {
	email = model.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return model.Account{}, fmt.Errorf("%w: invalid email", model.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return model.Account{}, fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.hashCost)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := a.accounts.Create(ctx, model.NewAccount(email, hash, a.now().UTC()))
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			a.logger.Info("Auth service: email already registered", "email", email)
			return model.Account{}, model.ErrEmailTaken
		}
		a.logger.Error("Auth service: failed to create account",
			"email", email,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("%w: failed to create account: %v", model.ErrStorage, err)
	}

	token, err := a.tokenManager.GenerateVerificationToken(account.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to generate verification token",
			"account_id", account.ID,
			"error", err.Error())
		return account, nil
	}
	if err := a.mailer.SendVerification(ctx, account.Email, token); err != nil {
		a.logger.Error("Auth service: failed to send verification",
			"account_id", account.ID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: account registered", "account_id", account.ID)
	return account, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (string, error) {
	account, err := a.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrBadCredentials
		}
		return "", fmt.Errorf("%w: failed to get account: %v", model.ErrStorage, err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		a.logger.Info("Auth service: wrong password", "account_id", account.ID)
		return "", model.ErrBadCredentials
	}

	token, err := a.tokenManager.GenerateAccessToken(account.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	a.logger.Debug("Auth service: login succeeded", "account_id", account.ID)
	return token, nil
}

func (a *Auth) Verify(ctx context.Context, token string) error {
	accountID, err := a.tokenManager.ParseVerificationToken(token)
	if err != nil {
		return model.ErrInvalidToken
	}

	if err := a.accounts.MarkVerified(ctx, accountID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidToken
		}
		return fmt.Errorf("%w: failed to mark verified: %v", model.ErrStorage, err)
	}

	a.logger.Info("Auth service: account verified", "account_id", accountID)
	return nil
}
