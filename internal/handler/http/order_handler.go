package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oyhutmarket/storefront/internal/guestorder"
	"github.com/oyhutmarket/storefront/internal/money"
)

type OrderTracker interface {
	Track(ctx context.Context, email, orderNumber string) (*guestorder.Order, error)
	ByToken(ctx context.Context, token string) (*guestorder.Order, error)
	Cancel(ctx context.Context, order *guestorder.Order, reason string) (*guestorder.CancelResult, error)
	CanCancel(order *guestorder.Order) bool
	EstimateRefund(order *guestorder.Order) money.Amount
}

type RecentOrderLister interface {
	List(ctx context.Context) []guestorder.SavedOrder
}

type TrackOrderRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OrderNumber string `json:"orderNumber" validate:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type OrderResponse struct {
	Order           *guestorder.Order `json:"order"`
	CanCancel       bool              `json:"canCancel"`
	EstimatedRefund money.Amount      `json:"estimatedRefund"`
}

type RecentOrdersResponse struct {
	Orders []guestorder.SavedOrder `json:"orders"`
}

type OrderHandler struct {
	tracker  OrderTracker
	recent   RecentOrderLister
	validate *validator.Validate
}

func NewOrderHandler(tracker OrderTracker, recent RecentOrderLister, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{tracker: tracker, recent: recent, validate: validate}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders/track", h.handleTrack)
	router.Get("/orders/recent", h.handleRecent)
	router.Get("/orders/{token}", h.handleGetByToken)
	router.Post("/orders/{token}/cancel", h.handleCancel)
}

func (h *OrderHandler) orderResponse(order *guestorder.Order) OrderResponse {
	return OrderResponse{
		Order:           order,
		CanCancel:       h.tracker.CanCancel(order),
		EstimatedRefund: h.tracker.EstimateRefund(order),
	}
}

func (h *OrderHandler) handleTrack(w http.ResponseWriter, r *http.Request) {
	var requestPayload TrackOrderRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	order, err := h.tracker.Track(r.Context(), requestPayload.Email, requestPayload.OrderNumber)
	if err != nil {
		respondWithServiceError(w, err, "Failed to find order")
		return
	}
	respondWithJSON(w, http.StatusOK, h.orderResponse(order))
}

func (h *OrderHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	orders := h.recent.List(r.Context())
	if orders == nil {
		orders = []guestorder.SavedOrder{}
	}
	respondWithJSON(w, http.StatusOK, RecentOrdersResponse{Orders: orders})
}

func (h *OrderHandler) handleGetByToken(w http.ResponseWriter, r *http.Request) {
	order, err := h.tracker.ByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to load order details")
		return
	}
	respondWithJSON(w, http.StatusOK, h.orderResponse(order))
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	var requestPayload CancelOrderRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	// Cancel checks status and the cancel window against the stored order,
	// so refuse here before anything is sent upstream.
	order, err := h.tracker.ByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to load order details")
		return
	}

	result, err := h.tracker.Cancel(r.Context(), order, requestPayload.Reason)
	if err != nil {
		respondWithServiceError(w, err, "Failed to cancel order")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
