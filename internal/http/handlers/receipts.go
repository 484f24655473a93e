package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/middleware"
	"github.com/greenrnd/server/internal/receipts"
)

// ReceiptHandler handles receipt listing
type ReceiptHandler struct {
	receipts *receipts.Service
	logger   *zerolog.Logger
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(svc *receipts.Service, logger *zerolog.Logger) *ReceiptHandler {
	return &ReceiptHandler{receipts: svc, logger: logger}
}

// HandleList handles GET /purchasers/{id}/receipts[?from=&to=]
func (h *ReceiptHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.receipts.ListReceipts(r.Context(), chi.URLParam(r, "id"), q.Get("from"), q.Get("to"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, list)
}
