package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/quota"
)

// Quota applies the rolling report allowance to stored accounts.
type Quota struct {
	accounts model.AccountStore
	logger   *logger.Logger
	now      func() time.Time
}

func NewQuota(accounts model.AccountStore, logger *logger.Logger) *Quota {
	return &Quota{
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Quota) CheckAndConsume(ctx context.Context, accountID uuid.UUID) (model.QuotaDecision, error) {
	decision, err := s.accounts.ConsumeQuota(ctx, accountID, s.now().UTC())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.QuotaDecision{}, err
		}
		return model.QuotaDecision{}, fmt.Errorf("%w: failed to consume quota: %v", model.ErrStorage, err)
	}

	if !decision.Allowed {
		s.logger.Info("Quota service: attempt denied",
			"account_id", accountID,
			"reason", decision.Reason,
			"used", decision.Used)
		return decision, model.ErrQuotaExceeded
	}

	s.logger.Debug("Quota service: attempt allowed",
		"account_id", accountID,
		"consumed", decision.Consumed,
		"used", decision.Used)

	return decision, nil
}

func (s *Quota) Refund(ctx context.Context, accountID uuid.UUID, decision model.QuotaDecision) error {
	if !decision.Consumed {
		return nil
	}

	if err := s.accounts.RefundQuota(ctx, accountID, decision.WindowStart); err != nil {
		s.logger.Error("Quota service: failed to refund quota",
			"account_id", accountID,
			"error", err.Error())
		return fmt.Errorf("failed to refund quota: %w", err)
	}

	s.logger.Debug("Quota service: quota refunded", "account_id", accountID)
	return nil
}

func (s *Quota) Dashboard(ctx context.Context, accountID uuid.UUID) (model.QuotaSnapshot, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.QuotaSnapshot{}, err
		}
		return model.QuotaSnapshot{}, fmt.Errorf("%w: failed to get account: %v", model.ErrStorage, err)
	}

	return quota.Snapshot(account, s.now().UTC()), nil
}
