package response

import (
	"encoding/json"
	"net/http"

	"github.com/restoinsight/insights-server/internal/model"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string     `json:"error"`
	Kind  model.Kind `json:"kind"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, kind model.Kind, message string) {
	JSON(w, status, ErrorBody{Error: message, Kind: kind})
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
