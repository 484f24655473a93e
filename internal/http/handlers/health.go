package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/greenrnd/server/internal/middleware"
)

// HealthHandler reports liveness and, when a pinger is set, storage readiness
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler creates a health handler; ping may be nil for the in-memory store
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			middleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
