package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// maxBodyBytes caps the JSON bodies accepted by the action endpoints.
const maxBodyBytes = 64 << 10

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a service error to an HTTP status and a message that is safe
// to show to the client. Unknown errors become a generic 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownChain):
		return http.StatusNotFound, "unknown chain"
	case errors.Is(err, domain.ErrNoBridge):
		return http.StatusNotFound, "no bridge for arbitrator"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidQuestionID):
		return http.StatusBadRequest, "invalid question id"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrWalletDisconnected):
		return http.StatusConflict, "wallet not connected"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeServiceError logs err and writes the mapped response. Only 5xx
// responses are logged at error level.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: "+op+" failed",
			slog.String("error", err.Error()),
		)
	} else {
		logger.DebugContext(r.Context(), "handler: "+op+" rejected",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, msg)
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	return nil
}

// parseQuestionFilter extracts phase, search and pagination parameters from
// the query string. Page and limit are clamped by the service.
func parseQuestionFilter(r *http.Request) (domain.QuestionFilter, error) {
	q := r.URL.Query()

	phase, ok := domain.ParsePhase(q.Get("phase"))
	if !ok {
		return domain.QuestionFilter{}, fmt.Errorf("%w: unknown phase %q", domain.ErrInvalidInput, q.Get("phase"))
	}

	filter := domain.QuestionFilter{
		Phase:  phase,
		Search: q.Get("q"),
		Page:   1,
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	return filter, nil
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
