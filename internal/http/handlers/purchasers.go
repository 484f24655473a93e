package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/directory"
	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/middleware"
)

// PurchaserHandler handles purchaser lookup and the grant-access endpoints
type PurchaserHandler struct {
	directory *directory.Service
	logger    *zerolog.Logger
}

// NewPurchaserHandler creates a new purchaser handler
func NewPurchaserHandler(svc *directory.Service, logger *zerolog.Logger) *PurchaserHandler {
	return &PurchaserHandler{directory: svc, logger: logger}
}

// HandleFind handles GET /purchasers?email=&phone_number=
func (h *PurchaserHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	match, err := h.directory.FindPurchaser(r.Context(), q.Get("email"), q.Get("phone_number"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, match)
}

// HandleIssueCode handles POST /purchasers/{id}/grantAccess
func (h *PurchaserHandler) HandleIssueCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.directory.IssueVerificationCode(r.Context(), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRedeemCode handles POST /purchasers/{id}/grantAccess/{code}
func (h *PurchaserHandler) HandleRedeemCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	code := chi.URLParam(r, "code")
	if err := h.directory.VerifyAccessCode(r.Context(), id, code); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	l := logging.With(r.Context(), h.logger)
	l.Debug().Str("purchaser_id", id).Msg("grant-access redeemed")
	w.WriteHeader(http.StatusNoContent)
}
