package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/checkout"
)

// CheckoutService opens and finds checkout sessions.
type CheckoutService interface {
	StartCheckout(kind cart.Kind) (string, *checkout.Session, error)
	Session(id string) (*checkout.Session, error)
	FinishCheckout(id string, session *checkout.Session) bool
}

type StartCheckoutRequest struct {
	Kind cart.Kind `json:"kind" validate:"required,oneof=general bakery"`
}

type CheckoutResponse struct {
	ID string `json:"id"`
	checkout.View
}

type CheckoutHandler struct {
	service  CheckoutService
	validate *validator.Validate
}

func NewCheckoutHandler(service CheckoutService, validate *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{service: service, validate: validate}
}

func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Post("/checkout", h.handleStart)
	router.Route("/checkout/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/continue", h.handleContinue)
		r.Post("/customer", h.handleCustomer)
		r.Post("/payment", h.handlePayment)
		r.Post("/back", h.handleBack)
	})
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (string, *checkout.Session, bool) {
	id := chi.URLParam(r, "id")
	session, err := h.service.Session(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Checkout session not found")
		return "", nil, false
	}
	return id, session, true
}

func (h *CheckoutHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var requestPayload StartCheckoutRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	id, session, err := h.service.StartCheckout(requestPayload.Kind)
	if err != nil {
		respondWithServiceError(w, err, "Failed to start checkout")
		return
	}
	respondWithJSON(w, http.StatusCreated, CheckoutResponse{ID: id, View: session.View()})
}

func (h *CheckoutHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: id, View: session.View()})
}

func (h *CheckoutHandler) handleContinue(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Continue(); err != nil {
		respondWithServiceError(w, err, "Failed to continue checkout")
		return
	}
	respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: id, View: session.View()})
}

func (h *CheckoutHandler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}

	// validated by the session, which keeps the field errors
	var form checkout.CustomerForm
	if !decodeRequest(w, r, nil, &form) {
		return
	}

	if err := session.SubmitCustomerInfo(form); err != nil {
		respondWithServiceError(w, err, "Failed to save customer information")
		return
	}
	respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: id, View: session.View()})
}

func (h *CheckoutHandler) handlePayment(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}

	var requestPayload checkout.PaymentInput
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	if err := session.Pay(r.Context(), requestPayload); err != nil {
		respondWithServiceError(w, err, "Failed to place order")
		return
	}

	view := session.View()
	h.service.FinishCheckout(id, session)
	respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: id, View: view})
}

func (h *CheckoutHandler) handleBack(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Back(); err != nil {
		respondWithServiceError(w, err, "Failed to go back")
		return
	}
	respondWithJSON(w, http.StatusOK, CheckoutResponse{ID: id, View: session.View()})
}
