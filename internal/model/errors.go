package model

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnverified     = errors.New("account is not verified")
	ErrInvalidInput   = errors.New("invalid input")
	ErrQuotaExceeded  = errors.New("report quota exceeded")
	ErrAuth           = errors.New("content generator rejected credentials")
	ErrRateLimited    = errors.New("content generator is rate limited")
	ErrTimeout        = errors.New("content generation timed out")
	ErrUnavailable    = errors.New("content generator unavailable")
	ErrStorage        = errors.New("storage failure")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrThrottled      = errors.New("too many requests")
)

// Errors returned by ContentGenerator implementations.
var (
	ErrGeneratorAuth        = errors.New("generator: authentication failed")
	ErrGeneratorRateLimited = errors.New("generator: rate limited")
	ErrGeneratorTimeout     = errors.New("generator: timeout")
)

// Kind is a stable machine-readable error category.
type Kind string

const (
	KindUnverified      Kind = "unverified"
	KindInvalidInput    Kind = "invalid_input"
	KindQuotaExceeded   Kind = "quota_exceeded"
	KindGeneratorAuth   Kind = "generator_auth"
	KindRateLimited     Kind = "rate_limited"
	KindTimeout         Kind = "timeout"
	KindUnavailable     Kind = "unavailable"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindUnauthenticated Kind = "unauthenticated"
	KindThrottled       Kind = "throttled"
	KindStorage         Kind = "storage"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrUnverified, KindUnverified},
	{ErrInvalidInput, KindInvalidInput},
	{ErrQuotaExceeded, KindQuotaExceeded},
	{ErrAuth, KindGeneratorAuth},
	{ErrRateLimited, KindRateLimited},
	{ErrTimeout, KindTimeout},
	{ErrUnavailable, KindUnavailable},
	{ErrNotFound, KindNotFound},
	{ErrEmailTaken, KindConflict},
	{ErrUnauthorized, KindUnauthenticated},
	{ErrInvalidToken, KindUnauthenticated},
	{ErrBadCredentials, KindUnauthenticated},
	{ErrThrottled, KindThrottled},
}

// KindOf classifies err. Unknown errors are reported as KindStorage.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindStorage
}
