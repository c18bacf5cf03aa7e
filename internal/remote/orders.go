package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oyhutmarket/storefront/internal/checkout"
	"github.com/oyhutmarket/storefront/internal/guestorder"
)

var (
	_ guestorder.Remote     = (*Client)(nil)
	_ checkout.OrderCreator = (*Client)(nil)
)

func (c *Client) CreateGuestOrder(ctx context.Context, req guestorder.CreateRequest) (*guestorder.CreateResult, error) {
	var result guestorder.CreateResult
	if err := c.post(ctx, "/bakery/guest/orders", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrackOrder(ctx context.Context, email, orderNumber string) (*guestorder.Order, error) {
	body := map[string]string{"email": email, "orderNumber": orderNumber}

	var raw json.RawMessage
	if err := c.post(ctx, "/bakery/guest/orders/track", body, &raw); err != nil {
		return nil, orderError(err)
	}
	return decodeOrder(raw)
}

func (c *Client) OrderByToken(ctx context.Context, token string) (*guestorder.Order, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/bakery/guest/orders/"+url.PathEscape(token), nil, &raw); err != nil {
		return nil, orderError(err)
	}
	return decodeOrder(raw)
}

// decodeOrder accepts both a bare order and one wrapped as {"order": ...}.
func decodeOrder(raw json.RawMessage) (*guestorder.Order, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, guestorder.ErrOrderNotFound
	}

	var envelope struct {
		Order *guestorder.Order `json:"order"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Order != nil {
		return envelope.Order, nil
	}

	var order guestorder.Order
	if err := json.Unmarshal(trimmed, &order); err != nil {
		return nil, fmt.Errorf("remote: decode order: %w", err)
	}
	if order.OrderNumber == "" && order.GuestToken == "" {
		return nil, guestorder.ErrOrderNotFound
	}
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, token, reason string) (*guestorder.CancelResult, error) {
	body := map[string]string{"reason": reason}

	var result guestorder.CancelResult
	if err := c.post(ctx, "/bakery/guest/orders/"+url.PathEscape(token)+"/cancel", body, &result); err != nil {
		return nil, orderError(err)
	}
	if result.RefundAmount == 0 {
		result.RefundAmount = result.Order.RefundAmount
	}
	return &result, nil
}

func orderError(err error) error {
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %w", guestorder.ErrOrderNotFound, err)
	}
	return err
}
