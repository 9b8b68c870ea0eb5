package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service and gateway errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, validationCode(err), verr.Error())
	case gateway.Kind(err) != "":
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("backend call failed")
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "backend service unavailable",
			Code:    gateway.Kind(err),
			Details: err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		respondError(w, http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func validationCode(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, service.ErrMissingCustomer):
		return "missing_customer"
	case errors.Is(err, service.ErrInvalidCustomer):
		return "invalid_customer_id"
	case errors.Is(err, service.ErrInvalidProduct):
		return "invalid_product_id"
	default:
		return "invalid_request"
	}
}
