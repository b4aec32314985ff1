package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

// TokenParser resolves an account ID from a bearer token.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

// Authenticate validates bearer tokens and injects the account ID into the
// request context.
type Authenticate struct {
	tokens         TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokens TokenParser, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, contextManager: contextManager, logger: logger}
}

// Handle rejects requests without a valid access token.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			response.Error(w, http.StatusUnauthorized, model.KindUnauthenticated, "missing authorization token")
			return
		}

		accountID, err := m.tokens.ParseAccessToken(token)
		if err != nil || accountID == uuid.Nil {
			m.logger.Debug("Authenticate middleware: rejected token",
				"path", r.URL.Path,
				"error", err)
			response.Error(w, http.StatusUnauthorized, model.KindUnauthenticated, "invalid authorization token")
			return
		}

		ctx := m.contextManager.SetAccountIDToContext(r.Context(), accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
