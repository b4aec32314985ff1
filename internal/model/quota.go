package model

import "time"

// DenyReason explains why a generation attempt was refused.
type DenyReason string

// DenyQuotaExceeded means the free allowance for the window is used up.
const DenyQuotaExceeded DenyReason = "quota_exceeded"

// QuotaDecision is the outcome of one check-and-consume attempt.
type QuotaDecision struct {
	Allowed bool
	Reason  DenyReason
	// Consumed is true when a unit was taken and must be refunded on failure.
	Consumed bool
	// WindowStart is the start of the window the decision was made in.
	WindowStart time.Time
	// Used is the quota counter after the decision.
	Used int
}

// QuotaSnapshot is a read-only view of the account's entitlement.
type QuotaSnapshot struct {
	Tier        Tier
	Unlimited   bool
	Used        int
	Limit       int
	Remaining   int
	WindowStart time.Time
	ResetsAt    time.Time
	ResetsIn    time.Duration
}
