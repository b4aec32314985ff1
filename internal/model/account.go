package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	// ConsumeQuota atomically applies one generation attempt to the account's
	// quota counters and reports the outcome.
	ConsumeQuota(ctx context.Context, id uuid.UUID, now time.Time) (QuotaDecision, error)
	// RefundQuota returns one unit consumed in the window starting at windowStart.
	RefundQuota(ctx context.Context, id uuid.UUID, windowStart time.Time) error
}

// Tier is an account entitlement level.
type Tier string

const (
	// TierFree is limited by the rolling quota.
	TierFree Tier = "free"
	// TierPro is never limited.
	TierPro Tier = "pro"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPro
}

// Account represents a registered tenant.
type Account struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     []byte
	Verified         bool
	Tier             Tier
	QuotaUsed        int
	QuotaWindowStart time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewAccount returns a fresh unverified free account.
func NewAccount(email string, passwordHash []byte, now time.Time) Account {
	return Account{
		ID:               uuid.New(),
		Email:            NormalizeEmail(email),
		PasswordHash:     passwordHash,
		Verified:         false,
		Tier:             TierFree,
		QuotaUsed:        0,
		QuotaWindowStart: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
