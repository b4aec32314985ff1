// Package quota holds the free-tier report allowance rules. Everything here
// is pure; stores apply the same transitions durably.
package quota

import (
	"time"

	"github.com/restoinsight/insights-server/internal/model"
)

const (
	// WindowLength is the length of the rolling quota window.
	WindowLength = 14 * 24 * time.Hour
	// FreeLimit is the number of reports a free account may generate per window.
	FreeLimit = 3
)

// Expired reports whether a window starting at start has elapsed at now.
func Expired(start, now time.Time) bool {
	return now.Sub(start) > WindowLength
}

// Threshold returns the window start before which a window counts as expired.
func Threshold(now time.Time) time.Time {
	return now.Add(-WindowLength)
}

// Normalize applies the window reset rule without any other change.
func Normalize(account model.Account, now time.Time) model.Account {
	if Expired(account.QuotaWindowStart, now) {
		account.QuotaUsed = 0
		account.QuotaWindowStart = now
	}
	return account
}

// CheckAndConsume evaluates one generation attempt and returns the decision
// together with the account state to persist. On denial the returned account
// equals the normalized input.
func CheckAndConsume(account model.Account, now time.Time) (model.QuotaDecision, model.Account) {
	account = Normalize(account, now)

	if account.Tier == model.TierPro {
		return model.QuotaDecision{
			Allowed:     true,
			WindowStart: account.QuotaWindowStart,
			Used:        account.QuotaUsed,
		}, account
	}

	if account.QuotaUsed >= FreeLimit {
		return model.QuotaDecision{
			Allowed:     false,
			Reason:      model.DenyQuotaExceeded,
			WindowStart: account.QuotaWindowStart,
			Used:        account.QuotaUsed,
		}, account
	}

	account.QuotaUsed++
	account.UpdatedAt = now

	return model.QuotaDecision{
		Allowed:     true,
		Consumed:    true,
		WindowStart: account.QuotaWindowStart,
		Used:        account.QuotaUsed,
	}, account
}

// Refund undoes one unit consumed in the window starting at windowStart.
// It is a no-op when the window has since been replaced or nothing is used.
func Refund(account model.Account, windowStart time.Time) model.Account {
	if !account.QuotaWindowStart.Equal(windowStart) || account.QuotaUsed <= 0 {
		return account
	}
	account.QuotaUsed--
	return account
}

// Snapshot computes the dashboard view at now. The reset rule is applied
// logically and is not persisted.
func Snapshot(account model.Account, now time.Time) model.QuotaSnapshot {
	account = Normalize(account, now)

	resetsAt := account.QuotaWindowStart.Add(WindowLength)
	resetsIn := resetsAt.Sub(now)
	if resetsIn < 0 {
		resetsIn = 0
	}

	snap := model.QuotaSnapshot{
		Tier:        account.Tier,
		Used:        account.QuotaUsed,
		Limit:       FreeLimit,
		WindowStart: account.QuotaWindowStart,
		ResetsAt:    resetsAt,
		ResetsIn:    resetsIn,
	}

	if account.Tier == model.TierPro {
		snap.Unlimited = true
		return snap
	}

	snap.Remaining = max(0, FreeLimit-account.QuotaUsed)
	return snap
}
