package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/auth"
	"github.com/greenrnd/server/internal/http/handlers"
	"github.com/greenrnd/server/internal/metrics"
	"github.com/greenrnd/server/internal/middleware"
)

// NewRouter creates the API router. Every request, matched or not, passes the auth gate.
func NewRouter(
	purchaserHandler *handlers.PurchaserHandler,
	receiptHandler *handlers.ReceiptHandler,
	validator auth.TokenValidator,
	logger *zerolog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.TokenAuth(validator, logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/purchasers", func(r chi.Router) {
		r.Get("/", purchaserHandler.HandleFind)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/grantAccess", purchaserHandler.HandleIssueCode)
			r.Post("/grantAccess/{code}", purchaserHandler.HandleRedeemCode)
			r.Get("/receipts", receiptHandler.HandleList)
		})
	})

	return r
}

// NewOpsRouter serves health and metrics outside the auth gate
func NewOpsRouter(healthHandler *handlers.HealthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", metrics.Handler())

	return r
}
