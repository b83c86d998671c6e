package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"store-order-hub/internal/domain"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP status codes
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var (
		validationErr  *domain.ValidationError
		upstreamErr    *domain.UpstreamError
		persistenceErr *domain.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		resp := errorResponse{Message: validationErr.Message, Field: validationErr.Field}
		if errors.As(validationErr.Err, &upstreamErr) {
			resp.Error = upstreamErr.Error()
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrDuplicateStore):
		writeJSON(w, http.StatusConflict, errorResponse{Message: "Store already exists"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Store not found"})
	case errors.As(err, &upstreamErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: "Order sync failed", Error: upstreamErr.Error()})
	case errors.As(err, &persistenceErr):
		logger.Error().Err(err).Msg("Persistence failure")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error"})
	default:
		logger.Error().Err(err).Msg("Unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error"})
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
