package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/oyhutmarket/storefront/internal/fallback"
)

var ErrProductNotFound = errors.New("product not found")

// LiveAPI is the subset of the remote client the catalog reads from.
type LiveAPI interface {
	Products(ctx context.Context, q Query) (ProductPage, error)
	Product(ctx context.Context, id string) (*Product, error)
	FeaturedProducts(ctx context.Context) (ProductPage, error)
	SearchProducts(ctx context.Context, q string) (ProductPage, error)
	AddReview(ctx context.Context, productID string, r Review) (ReviewResult, error)
	Login(ctx context.Context, c Credentials) (AuthResult, error)
	BakeryProducts(ctx context.Context, q Query) (ProductPage, error)
	BakeryProduct(ctx context.Context, id string) (*Product, error)
	BakeryCategories(ctx context.Context) ([]Category, error)
	CalculatePrice(ctx context.Context, productID string, req PriceRequest) (PriceQuote, error)
}

type Service interface {
	Products(ctx context.Context, q Query) (ProductPage, error)
	ProductByID(ctx context.Context, id string) (*Product, error)
	FeaturedProducts(ctx context.Context) (ProductPage, error)
	SearchProducts(ctx context.Context, q string) (ProductPage, error)
	AddReview(ctx context.Context, productID string, r Review) (ReviewResult, error)
	Login(ctx context.Context, c Credentials) (AuthResult, error)
	BakeryProducts(ctx context.Context, q Query) (ProductPage, error)
	BakeryProductByID(ctx context.Context, id string) (*Product, error)
	BakeryCategories(ctx context.Context) ([]Category, error)
	CalculatePrice(ctx context.Context, productID string, req PriceRequest) (PriceQuote, error)
}

type service struct {
	live     LiveAPI
	loader   *Loader
	gate     *fallback.Gate
	validate *validator.Validate
}

func NewService(live LiveAPI, loader *Loader, gate *fallback.Gate) Service {
	return &service{
		live:     live,
		loader:   loader,
		gate:     gate,
		validate: validator.New(),
	}
}

func (s *service) products() []Product {
	return s.loader.Load(ProductsSnapshot).Data.Products
}

func (s *service) bakeryProducts() []Product {
	return s.loader.Load(BakeryProductsSnapshot).Data.Products
}

// listing serves a page read. Read paths never surface connectivity errors:
// if the static side fails too the caller gets an empty page.
func (s *service) listing(ctx context.Context, op string, live func(context.Context) (ProductPage, error), static func() []Product) (ProductPage, error) {
	page, err := fallback.Read(ctx, s.gate, op, live, func(context.Context) (ProductPage, error) {
		return SinglePage(static()), nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ProductPage{}, err
		}
		return EmptyPage(), nil
	}
	return page, nil
}

func (s *service) Products(ctx context.Context, q Query) (ProductPage, error) {
	return s.listing(ctx, "products",
		func(ctx context.Context) (ProductPage, error) { return s.live.Products(ctx, q) },
		func() []Product { return Filter(s.products(), q) },
	)
}

func (s *service) FeaturedProducts(ctx context.Context) (ProductPage, error) {
	return s.listing(ctx, "featured_products",
		s.live.FeaturedProducts,
		func() []Product { return Featured(s.products()) },
	)
}

func (s *service) SearchProducts(ctx context.Context, q string) (ProductPage, error) {
	return s.listing(ctx, "search_products",
		func(ctx context.Context) (ProductPage, error) { return s.live.SearchProducts(ctx, q) },
		func() []Product { return Filter(s.products(), Query{Search: q}) },
	)
}

func (s *service) BakeryProducts(ctx context.Context, q Query) (ProductPage, error) {
	return s.listing(ctx, "bakery_products",
		func(ctx context.Context) (ProductPage, error) { return s.live.BakeryProducts(ctx, q) },
		func() []Product { return Filter(s.bakeryProducts(), q) },
	)
}

func (s *service) ProductByID(ctx context.Context, id string) (*Product, error) {
	return s.byID(ctx, "product", id, s.live.Product, s.products)
}

func (s *service) BakeryProductByID(ctx context.Context, id string) (*Product, error) {
	return s.byID(ctx, "bakery_product", id, s.live.BakeryProduct, s.bakeryProducts)
}

func (s *service) byID(ctx context.Context, op, id string, live func(context.Context, string) (*Product, error), static func() []Product) (*Product, error) {
	p, err := fallback.Read(ctx, s.gate, op,
		func(ctx context.Context) (*Product, error) { return live(ctx, id) },
		func(context.Context) (*Product, error) {
			p, ok := FindByID(static(), id)
			if !ok {
				return nil, ErrProductNotFound
			}
			return p, nil
		},
	)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, fmt.Errorf("service: product %s: %w", id, err)
		}
		return nil, fmt.Errorf("service: failed to get product %s: %w", id, err)
	}
	return p, nil
}

func (s *service) BakeryCategories(ctx context.Context) ([]Category, error) {
	categories, err := fallback.Read(ctx, s.gate, "bakery_categories",
		s.live.BakeryCategories,
		func(context.Context) ([]Category, error) {
			return CountCategories(s.bakeryProducts()), nil
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return []Category{}, nil
	}
	return categories, nil
}

// CalculatePrice asks the live API for a quote and, when it cannot be
// reached, prices the selection locally with the same unit-price rule the
// cart uses.
func (s *service) CalculatePrice(ctx context.Context, productID string, req PriceRequest) (PriceQuote, error) {
	quote, err := fallback.Read(ctx, s.gate, "calculate_price",
		func(ctx context.Context) (PriceQuote, error) { return s.live.CalculatePrice(ctx, productID, req) },
		func(context.Context) (PriceQuote, error) {
			p, ok := FindByID(s.bakeryProducts(), productID)
			if !ok {
				return PriceQuote{}, ErrProductNotFound
			}
			return p.Quote(req), nil
		},
	)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("service: failed to calculate price for %s: %w", productID, err)
	}
	return quote, nil
}

// AddReview has no offline equivalent; offline it answers with the reviews
// notice instead of an error.
func (s *service) AddReview(ctx context.Context, productID string, r Review) (ReviewResult, error) {
	if err := s.validate.Struct(r); err != nil {
		return ReviewResult{}, fmt.Errorf("service: invalid review: %w", err)
	}

	return fallback.Do(ctx, s.gate, "add_review",
		func(ctx context.Context) (ReviewResult, error) { return s.live.AddReview(ctx, productID, r) },
		func(context.Context) (ReviewResult, error) {
			u := fallback.Offline(fallback.FeatureReviews)
			return ReviewResult{Success: u.Success, Message: u.Message, Offline: u.Offline}, nil
		},
	)
}

// Login has no offline equivalent; offline it answers with the login notice.
func (s *service) Login(ctx context.Context, c Credentials) (AuthResult, error) {
	if err := s.validate.Struct(c); err != nil {
		return AuthResult{}, fmt.Errorf("service: invalid credentials: %w", err)
	}

	return fallback.Do(ctx, s.gate, "login",
		func(ctx context.Context) (AuthResult, error) { return s.live.Login(ctx, c) },
		func(context.Context) (AuthResult, error) {
			u := fallback.Offline(fallback.FeatureLogin)
			return AuthResult{Success: u.Success, Message: u.Message, Offline: u.Offline}, nil
		},
	)
}
