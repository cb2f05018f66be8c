package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Veraticus/tally/internal/common"
)

// maxBodyBytes bounds request bodies; ledger payloads are tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse acknowledges requests that return no resource.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps err onto a status code. Client faults carry the error
// text as the message; server faults carry the action that failed plus the
// underlying detail.
func writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)

	resp := ErrorResponse{Message: action, Error: err.Error()}
	switch status {
	case http.StatusNotFound, http.StatusForbidden:
		resp = ErrorResponse{Message: clientMessage(err)}
	case http.StatusBadRequest:
		resp.Error = clientMessage(err)
	default:
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"action", action,
			"error", err)
	}
	writeJSON(w, status, resp)
}

// statusFor translates the ledger error taxonomy into HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrEditWindowExpired):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func clientMessage(err error) string {
	if msg := common.UserMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}

// decodeJSON reads a JSON request body into dst. Malformed bodies are
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", common.ErrValidation, err)
	}
	return nil
}
