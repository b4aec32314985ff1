package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/model"
)

const unlimited = "unlimited"

// QuotaService reports an account's entitlement.
type QuotaService interface {
	Dashboard(ctx context.Context, accountID uuid.UUID) (model.QuotaSnapshot, error)
}

type dashboardResponse struct {
	Tier            model.Tier `json:"tier"`
	Remaining       any        `json:"remaining"`
	Used            int        `json:"used"`
	Limit           any        `json:"limit"`
	NextReset       *time.Time `json:"next_reset"`
	ResetsInSeconds *int64     `json:"resets_in_seconds"`
}

// Dashboard handles the quota summary endpoint.
type Dashboard struct {
	quotaService   QuotaService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewDashboard(quotaService QuotaService, contextManager model.ContextManager, logger *logger.Logger) *Dashboard {
	return &Dashboard{
		quotaService:   quotaService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Get returns tier, remaining allowance and the next window reset.
func (h *Dashboard) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.contextManager.GetAccountIDFromContext(r.Context())
	if !ok {
		handleError(w, model.ErrUnauthorized)
		return
	}

	snap, err := h.quotaService.Dashboard(r.Context(), accountID)
	if err != nil {
		h.logger.Error("Dashboard handler: failed to load quota",
			"account_id", accountID,
			"error", err.Error())
		handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, dashboardView(snap))
}

func dashboardView(snap model.QuotaSnapshot) dashboardResponse {
	resetsAt := snap.ResetsAt.UTC()
	resetsIn := int64(snap.ResetsIn / time.Second)

	resp := dashboardResponse{
		Tier:            snap.Tier,
		Remaining:       snap.Remaining,
		Used:            snap.Used,
		Limit:           snap.Limit,
		NextReset:       &resetsAt,
		ResetsInSeconds: &resetsIn,
	}
	if snap.Unlimited {
		resp.Remaining = unlimited
		resp.Limit = unlimited
	}
	return resp
}
