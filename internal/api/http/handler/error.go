package handler

import (
	"net/http"

	"github.com/restoinsight/insights-server/internal/api/http/response"
	"github.com/restoinsight/insights-server/internal/model"
)

type errorResponse struct {
	status  int
	message string
}

var errorResponses = map[model.Kind]errorResponse{
	model.KindUnverified:      {http.StatusForbidden, "account is not verified"},
	model.KindInvalidInput:    {http.StatusBadRequest, "invalid input"},
	model.KindQuotaExceeded:   {http.StatusTooManyRequests, "report quota exceeded"},
	model.KindGeneratorAuth:   {http.StatusBadGateway, "content generator is misconfigured"},
	model.KindRateLimited:     {http.StatusServiceUnavailable, "content generator is busy, try again later"},
	model.KindTimeout:         {http.StatusGatewayTimeout, "content generation timed out"},
	model.KindUnavailable:     {http.StatusBadGateway, "content generator unavailable"},
	model.KindNotFound:        {http.StatusNotFound, "not found"},
	model.KindConflict:        {http.StatusConflict, "email is already registered"},
	model.KindUnauthenticated: {http.StatusUnauthorized, "unauthorized"},
	model.KindThrottled:       {http.StatusTooManyRequests, "too many requests"},
}

// handleError converts err to a JSON error response. Only fixed messages are
// written, so collaborator text never reaches the client.
func handleError(w http.ResponseWriter, err error) {
	kind := model.KindOf(err)

	resp, ok := errorResponses[kind]
	if !ok {
		response.Error(w, http.StatusInternalServerError, model.KindStorage, "internal server error")
		return
	}

	response.Error(w, resp.status, kind, resp.message)
}

// invalidInput writes a 400 with a caller-facing explanation.
func invalidInput(w http.ResponseWriter, message string) {
	response.Error(w, http.StatusBadRequest, model.KindInvalidInput, message)
}
