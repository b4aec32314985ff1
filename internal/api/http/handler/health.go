package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/logger"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles the liveness endpoint.
type Health struct {
	pingers map[string]Pinger
	logger  *logger.Logger
}

func NewHealth(pingers map[string]Pinger, logger *logger.Logger) *Health {
	return &Health{pingers: pingers, logger: logger}
}

// Get pings every dependency and responds 503 if any of them fails.
func (h *Health) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := http.StatusOK
	resp := healthResponse{Status: "ok"}

	if len(h.pingers) > 0 {
		resp.Checks = make(map[string]string, len(h.pingers))
	}
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Health handler: dependency check failed",
				"dependency", name,
				"error", err.Error())
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	response.JSON(w, status, resp)
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
