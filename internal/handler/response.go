package handler

// RESPONSE HELPERS:
// Every endpoint answers with JSON. Successful bodies are whatever the
// handler passes to writeJSON; failures always have the same shape:
//
//	{"error": "radio_name is required"}
//
// The front-end pages read only the "error" key, so there is no separate
// machine-readable code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/otayori/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a
// student message, well under this.
const maxBodyBytes = 64 << 10

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges an update that has nothing else to return.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// writeJSON sends data as JSON with the given status.
// Headers must be set before WriteHeader; after that they are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// WriteError maps a domain error to a status code. It is exported for
// middleware that rejects requests before any handler runs.
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrNotFound     → 404
//	anything else   → 500 with a generic message
//
// The raw text of an unknown error can contain SQL or Redis details, so it
// never reaches the client. The service layer has already logged it.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: appErr.Message})
			return
		}
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// decodeJSON reads a JSON request body into dst. Any decoding failure,
// including an oversized or empty body, is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
