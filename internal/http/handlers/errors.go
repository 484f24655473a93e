package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/middleware"
	"github.com/greenrnd/server/internal/model"
)

// respondError maps domain errors to status codes. Anything unrecognized is a 500.
func respondError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	l := logging.With(r.Context(), logger)

	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, model.ErrForbidden):
		// redeem failures stay indistinguishable to the caller
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	}

	if status == http.StatusInternalServerError {
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	middleware.RespondWithError(w, status, message)
}
