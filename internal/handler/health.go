package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is the part of a store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz. 503 when the store does not answer
// within two seconds.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
