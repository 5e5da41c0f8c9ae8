package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/pkg/apierror"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/shared"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/validator"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// parseQueryInt parses a query parameter as an integer.
// Returns defaultVal if the input is empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// writeValidationError converts validation errors to API errors and
// writes the response.
func writeValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apiErrors := make([]apierror.ValidationError, len(validationErrors))
		for i, ve := range validationErrors {
			apiErrors[i] = apierror.ValidationError{
				Field:   ve.Field,
				Message: ve.Message,
			}
		}
		apierror.ValidationFailed("Validation failed", apiErrors).WriteJSON(w)
		return
	}
	apierror.BadRequest("Validation error").WriteJSON(w)
}

// writeServiceError maps service and domain errors to API errors and
// writes the response. Handlers share this mapping so every endpoint
// reports the same shapes for the same failures.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var validationErrors validator.ValidationErrors
	var seatErr *app.SeatValidationError
	var gwErr *account.GatewayError

	switch {
	case errors.As(err, &validationErrors):
		writeValidationError(w, err)
	case errors.As(err, &seatErr):
		apiErrors := make([]apierror.ValidationError, len(seatErr.Errors))
		for i, se := range seatErr.Errors {
			apiErrors[i] = apierror.ValidationError{
				Field:   se.Field,
				Message: se.Message,
			}
		}
		apierror.ValidationFailed("Validation failed", apiErrors).WriteJSON(w)
	case errors.As(err, &gwErr):
		apierror.UpstreamFailed(gwErr.Message()).WriteJSON(w)
	case errors.Is(err, account.ErrPendingVerification):
		apierror.Conflict(err.Error()).WriteJSON(w)
	case errors.Is(err, app.ErrSubmitInFlight):
		apierror.Conflict(err.Error()).WriteJSON(w)
	case shared.IsNotFound(err):
		apierror.New(http.StatusNotFound, apierror.CodeNotFound, err.Error()).WriteJSON(w)
	case shared.IsConflict(err):
		apierror.Conflict(err.Error()).WriteJSON(w)
	case shared.IsValidation(err):
		apierror.BadRequest(err.Error()).WriteJSON(w)
	default:
		log.Error("service error", "error", err)
		apierror.InternalError(err).WriteJSON(w)
	}
}
