package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oyhutmarket/storefront/internal/catalog"
	"github.com/oyhutmarket/storefront/internal/fallback"
)

type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
}

type CatalogHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewCatalogHandler(service catalog.Service, validate *validator.Validate) *CatalogHandler {
	return &CatalogHandler{service: service, validate: validate}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListProducts)
	router.Get("/products/featured", h.handleFeaturedProducts)
	router.Get("/products/search", h.handleSearchProducts)
	router.Get("/products/{id}", h.handleGetProduct)
	router.Post("/products/{id}/reviews", h.handleAddReview)
	router.Post("/auth/login", h.handleLogin)

	router.Get("/bakery/products", h.handleListBakeryProducts)
	router.Get("/bakery/products/categories", h.handleBakeryCategories)
	router.Get("/bakery/products/{id}", h.handleGetBakeryProduct)
	router.Post("/bakery/products/{id}/calculate-price", h.handleCalculatePrice)
}

func queryFrom(r *http.Request) catalog.Query {
	return catalog.Query{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
}

func (h *CatalogHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Products(r.Context(), queryFrom(r))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) handleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.FeaturedProducts(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list featured products")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	page, err := h.service.SearchProducts(r.Context(), q)
	if err != nil {
		respondWithServiceError(w, err, "Failed to search products")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var requestPayload catalog.Review
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	result, err := h.service.AddReview(r.Context(), chi.URLParam(r, "id"), requestPayload)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add review")
		return
	}

	code := http.StatusCreated
	if result.Offline {
		code = http.StatusOK
	}
	respondWithJSON(w, code, result)
}

func (h *CatalogHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload catalog.Credentials
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	result, err := h.service.Login(r.Context(), requestPayload)
	if err != nil {
		if fallback.IsClientError(err) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondWithServiceError(w, err, "Failed to log in")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *CatalogHandler) handleListBakeryProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.BakeryProducts(r.Context(), queryFrom(r))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list bakery products")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) handleBakeryCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.BakeryCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list bakery categories")
		return
	}
	respondWithJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func (h *CatalogHandler) handleGetBakeryProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.BakeryProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to get bakery product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	var requestPayload catalog.PriceRequest
	if !decodeRequest(w, r, h.validate, &requestPayload) {
		return
	}

	quote, err := h.service.CalculatePrice(r.Context(), chi.URLParam(r, "id"), requestPayload)
	if err != nil {
		respondWithServiceError(w, err, "Failed to calculate price")
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}
