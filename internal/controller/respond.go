package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-crm/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers {"error": msg}. Server-side failures are logged and
// reported with a generic message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := appErrors.StatusCode(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		msg = internalMessage(err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalMessage(err error) string {
	var (
		parse    *appErrors.ParseError
		upstream *appErrors.UpstreamError
	)
	switch {
	case errors.As(err, &parse):
		return "Failed to parse AI response"
	case errors.As(err, &upstream):
		return "AI service unavailable"
	default:
		return "Internal server error"
	}
}

// decodeBody reads a JSON body into dst. An empty body is accepted when
// allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return appErrors.NewValidation("Invalid JSON body")
	}
	return nil
}
