package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/app"
	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/catalog"
	"github.com/oyhutmarket/storefront/internal/checkout"
	"github.com/oyhutmarket/storefront/internal/fallback"
	"github.com/oyhutmarket/storefront/internal/guestorder"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// OfflineResponse is returned when a feature needs the live backend.
type OfflineResponse struct {
	Error   string `json:"error"`
	Offline bool   `json:"offline"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Type("payload_type", payload).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// formatValidationErrors keys each failure by its JSON field path.
func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		switch fe.Tag() {
		case "required":
			details[path] = "is required"
		case "oneof":
			details[path] = fmt.Sprintf("must be one of: %s", fe.Param())
		case "min":
			details[path] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max":
			details[path] = fmt.Sprintf("must be at most %s", fe.Param())
		case "email":
			details[path] = "must be a valid email"
		default:
			details[path] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
	}
	return details
}

// decodeRequest reads a JSON body into dst and, unless validate is nil,
// validates it. It writes the error response itself and reports whether the
// handler may continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if validate == nil {
		return true
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func mapErrorToStatusCode(err error) int {
	var (
		offline    fallback.Unavailable
		validation *checkout.ValidationError
		submit     *checkout.SubmitError
		payment    *checkout.PaymentError
	)

	switch {
	case errors.As(err, &offline):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &submit):
		if submit.Retryable {
			return http.StatusBadGateway
		}
		return http.StatusUnprocessableEntity
	case errors.As(err, &payment):
		return http.StatusPaymentRequired
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, guestorder.ErrOrderNotFound),
		errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, app.ErrUnknownCart):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, guestorder.ErrLookupInput),
		errors.Is(err, guestorder.ErrReasonRequired),
		errors.Is(err, guestorder.ErrInvalidSchedule):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrBelowMinimum),
		errors.Is(err, cart.ErrAboveMaximum),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, guestorder.ErrCancellationWindow),
		errors.Is(err, guestorder.ErrOrderClosed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrAlreadyConfirmed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError maps err to a status and a client-facing body.
// Internal failures are logged and answered with fallbackMessage.
func respondWithServiceError(w http.ResponseWriter, err error, fallbackMessage string) {
	code := mapErrorToStatusCode(err)

	var (
		offline    fallback.Unavailable
		validation *checkout.ValidationError
	)
	switch {
	case errors.As(err, &offline):
		respondWithJSON(w, code, OfflineResponse{Error: offline.Message, Offline: true})
	case errors.As(err, &validation):
		respondWithJSON(w, code, ValidationErrorResponse{Error: "Validation failed", Details: validation.Fields})
	case code == http.StatusInternalServerError:
		log.Error().Err(err).Msg(fallbackMessage)
		respondWithError(w, code, fallbackMessage)
	default:
		respondWithError(w, code, clientMessage(err))
	}
}

// clientMessage is the text shown to the customer for a known error.
func clientMessage(err error) string {
	var (
		submit  *checkout.SubmitError
		payment *checkout.PaymentError
	)
	switch {
	case errors.As(err, &submit):
		return submit.Message
	case errors.As(err, &payment):
		return payment.Message
	case errors.Is(err, guestorder.ErrOrderNotFound):
		return "Order not found. Please check your email and order number."
	case errors.Is(err, catalog.ErrProductNotFound):
		return "Product not found"
	case errors.Is(err, guestorder.ErrCancellationWindow):
		return "Orders can only be cancelled more than 24 hours before pickup time."
	default:
		msg := err.Error()
		if msg == "" {
			return "Request failed"
		}
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
}
