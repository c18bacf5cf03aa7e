package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/catalog"
	"github.com/oyhutmarket/storefront/internal/money"
)

// CartProvider hands out the engine of a cart kind.
type CartProvider interface {
	Cart(kind cart.Kind) (*cart.Engine, error)
}

type CustomizationRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type AddItemRequest struct {
	ProductID           string                 `json:"productId" validate:"required"`
	Quantity            int                    `json:"quantity" validate:"required,min=1"`
	Size                string                 `json:"size,omitempty"`
	Flavor              string                 `json:"flavor,omitempty"`
	Customizations      []CustomizationRequest `json:"customizations,omitempty" validate:"dive"`
	SpecialInstructions string                 `json:"specialInstructions,omitempty"`
	PickupDate          string                 `json:"pickupDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PickupTime          string                 `json:"pickupTime,omitempty" validate:"omitempty,datetime=15:04"`
}

type UpdateQuantityRequest struct {
	// Zero or less removes the line.
	Quantity *int `json:"quantity" validate:"required"`
}

type VisibilityRequest struct {
	Open *bool `json:"open" validate:"required"`
}

type CartResponse struct {
	Kind       cart.Kind       `json:"kind"`
	Items      []cart.LineItem `json:"items"`
	IsOpen     bool            `json:"isOpen"`
	TotalItems int             `json:"totalItems"`
	TotalPrice money.Amount    `json:"totalPrice"`
}

func newCartResponse(c cart.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartResponse{
		Kind:       c.Kind,
		Items:      items,
		IsOpen:     c.IsOpen,
		TotalItems: c.TotalItemCount(),
		TotalPrice: c.TotalPrice(),
	}
}

type CartHandler struct {
	carts    CartProvider
	catalog  catalog.Service
	validate *validator.Validate
}

func NewCartHandler(carts CartProvider, products catalog.Service, validate *validator.Validate) *CartHandler {
	return &CartHandler{carts: carts, catalog: products, validate: validate}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/carts/{kind}", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddItem)
		r.Patch("/items/{lineID}", h.handleUpdateQuantity)
		r.Delete("/items/{lineID}", h.handleRemoveItem)
		r.Put("/visibility", h.handleSetVisibility)
	})
}

// engine resolves the {kind} URL parameter, answering 404 itself when it
// names no cart.
func (h *CartHandler) engine(w http.ResponseWriter, r *http.Request) (*cart.Engine, bool) {
	kindParam := chi.URLParam(r, "kind")
	kind, err := cart.ParseKind(kindParam)
	if err != nil {
		log.Warn().Err(err).Str("cart", kindParam).Msg("Unknown cart kind in URL")
		respondWithError(w, http.StatusNotFound, "Cart not found")
		return nil, false
	}

	engine, err := h.carts.Cart(kind)
	if err != nil {
		respondWithServiceError(w, err, "Failed to open cart")
		return nil, false
	}
	return engine, true
}

func (h *CartHandler) product(ctx context.Context, kind cart.Kind, id string) (*catalog.Product, error) {
	if kind == cart.KindBakery {
		return h.catalog.BakeryProductByID(ctx, id)
	}
	return h.catalog.ProductByID(ctx, id)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(engine.Snapshot()))
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	c, err := engine.Clear(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var requestPayload AddItemRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	product, err := h.product(r.Context(), engine.Kind(), requestPayload.ProductID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to look up product")
		return
	}

	customizations := make([]cart.Customization, 0, len(requestPayload.Customizations))
	for _, c := range requestPayload.Customizations {
		customizations = append(customizations, cart.Customization{Name: c.Name, Value: c.Value})
	}

	c, err := engine.AddItem(r.Context(), cart.AddRequest{
		Product:             *product,
		Quantity:            requestPayload.Quantity,
		Size:                requestPayload.Size,
		Flavor:              requestPayload.Flavor,
		Customizations:      customizations,
		SpecialInstructions: requestPayload.SpecialInstructions,
		Schedule: cart.Schedule{
			PickupDate: requestPayload.PickupDate,
			PickupTime: requestPayload.PickupTime,
		},
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to add item")
		return
	}
	respondWithJSON(w, http.StatusCreated, newCartResponse(c))
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateQuantityRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := engine.UpdateQuantity(r.Context(), chi.URLParam(r, "lineID"), *requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update quantity")
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	c, err := engine.RemoveItem(r.Context(), chi.URLParam(r, "lineID"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove item")
		return
	}
	respondWithJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *CartHandler) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var requestPayload VisibilityRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	respondWithJSON(w, http.StatusOK, newCartResponse(engine.SetVisibility(r.Context(), *requestPayload.Open)))
}
