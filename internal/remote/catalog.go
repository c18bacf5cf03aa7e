package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oyhutmarket/storefront/internal/catalog"
)

var _ catalog.LiveAPI = (*Client)(nil)

func listQuery(q catalog.Query) url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func (c *Client) Products(ctx context.Context, q catalog.Query) (catalog.ProductPage, error) {
	var page catalog.ProductPage
	if err := c.get(ctx, "/products", listQuery(q), &page); err != nil {
		return catalog.ProductPage{}, err
	}
	return page, nil
}

func (c *Client) FeaturedProducts(ctx context.Context) (catalog.ProductPage, error) {
	var page catalog.ProductPage
	if err := c.get(ctx, "/products/featured", nil, &page); err != nil {
		return catalog.ProductPage{}, err
	}
	return page, nil
}

func (c *Client) SearchProducts(ctx context.Context, q string) (catalog.ProductPage, error) {
	var page catalog.ProductPage
	if err := c.get(ctx, "/products/search", url.Values{"q": {q}}, &page); err != nil {
		return catalog.ProductPage{}, err
	}
	return page, nil
}

func (c *Client) Product(ctx context.Context, id string) (*catalog.Product, error) {
	return c.product(ctx, "/products/"+url.PathEscape(id))
}

func (c *Client) BakeryProducts(ctx context.Context, q catalog.Query) (catalog.ProductPage, error) {
	var page catalog.ProductPage
	if err := c.get(ctx, "/bakery/products", listQuery(q), &page); err != nil {
		return catalog.ProductPage{}, err
	}
	return page, nil
}

func (c *Client) BakeryProduct(ctx context.Context, id string) (*catalog.Product, error) {
	return c.product(ctx, "/bakery/products/"+url.PathEscape(id))
}

// product accepts both a bare product and one wrapped as {"product": ...}.
func (c *Client) product(ctx context.Context, path string) (*catalog.Product, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, nil, &raw); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %w", catalog.ErrProductNotFound, err)
		}
		return nil, err
	}

	var envelope struct {
		Product *catalog.Product `json:"product"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Product != nil {
		return envelope.Product, nil
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, catalog.ErrProductNotFound
	}
	var p catalog.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("remote: decode product: %w", err)
	}
	return &p, nil
}

func (c *Client) BakeryCategories(ctx context.Context) ([]catalog.Category, error) {
	var resp struct {
		Categories []catalog.Category `json:"categories"`
	}
	if err := c.get(ctx, "/bakery/products/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) CalculatePrice(ctx context.Context, productID string, req catalog.PriceRequest) (catalog.PriceQuote, error) {
	var quote catalog.PriceQuote
	path := "/bakery/products/" + url.PathEscape(productID) + "/calculate-price"
	if err := c.post(ctx, path, req, &quote); err != nil {
		return catalog.PriceQuote{}, err
	}
	return quote, nil
}

func (c *Client) AddReview(ctx context.Context, productID string, r catalog.Review) (catalog.ReviewResult, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/products/"+url.PathEscape(productID)+"/reviews", r, &resp); err != nil {
		return catalog.ReviewResult{}, err
	}
	return catalog.ReviewResult{Success: true, Message: resp.Message}, nil
}

func (c *Client) Login(ctx context.Context, creds catalog.Credentials) (catalog.AuthResult, error) {
	var resp struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/auth/login", creds, &resp); err != nil {
		return catalog.AuthResult{}, err
	}
	return catalog.AuthResult{Success: resp.Token != "", Token: resp.Token, Message: resp.Message}, nil
}
