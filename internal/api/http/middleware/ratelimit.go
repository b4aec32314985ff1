package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

// Limiter admits or refuses one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, error)
	Limit() int
}

// RateLimit throttles authenticated requests per account. Limiter failures
// let the request through.
type RateLimit struct {
	limiter        Limiter
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewRateLimit(limiter Limiter, contextManager model.ContextManager, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, contextManager: contextManager, logger: logger}
}

func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := m.contextManager.GetAccountIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, err := m.limiter.Allow(r.Context(), accountID.String())
		if err != nil {
			m.logger.Warn("RateLimit middleware: limiter unavailable",
				"account_id", accountID,
				"error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests, model.KindThrottled, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
