package guestorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/fallback"
	"github.com/oyhutmarket/storefront/internal/money"
)

var ErrLookupInput = errors.New("please enter both email and order number")

// DefaultCancelWindow is how close to the scheduled time an order may still
// be cancelled.
const DefaultCancelWindow = 24 * time.Hour

// Remote is the live backend's guest-order surface.
type Remote interface {
	TrackOrder(ctx context.Context, email, orderNumber string) (*Order, error)
	OrderByToken(ctx context.Context, token string) (*Order, error)
	CancelOrder(ctx context.Context, token, reason string) (*CancelResult, error)
}

// Gate reports whether the live backend may be called.
type Gate interface {
	Online(ctx context.Context) bool
}

type Tracker struct {
	remote Remote
	gate   Gate
	now    func() time.Time
	loc    *time.Location
	window time.Duration
}

type TrackerOption func(*Tracker)

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithLocation(loc *time.Location) TrackerOption {
	return func(t *Tracker) { t.loc = loc }
}

func WithCancelWindow(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.window = d }
}

func NewTracker(remote Remote, gate Gate, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		remote: remote,
		gate:   gate,
		now:    time.Now,
		loc:    time.UTC,
		window: DefaultCancelWindow,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track looks an order up by the customer's email and order number.
func (t *Tracker) Track(ctx context.Context, email, orderNumber string) (*Order, error) {
	email, orderNumber = strings.TrimSpace(email), strings.TrimSpace(orderNumber)
	if email == "" || orderNumber == "" {
		return nil, ErrLookupInput
	}
	if !t.gate.Online(ctx) {
		return nil, fallback.Offline(fallback.FeatureOrder)
	}

	order, err := t.remote.TrackOrder(ctx, email, orderNumber)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Str("order_number", orderNumber).Msg("tracker: no order matches email and number")
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("tracker: failed to track order %s: %w", orderNumber, err)
	}
	return order, nil
}

// ByToken looks an order up by its guest token.
func (t *Tracker) ByToken(ctx context.Context, token string) (*Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrOrderNotFound
	}
	if !t.gate.Online(ctx) {
		return nil, fallback.Offline(fallback.FeatureOrder)
	}

	order, err := t.remote.OrderByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("tracker: failed to get order by token: %w", err)
	}
	return order, nil
}

// CanCancel reports whether order is open and its scheduled time is more
// than the cancellation window away.
func (t *Tracker) CanCancel(order *Order) bool {
	return t.checkCancellable(order) == nil
}

func (t *Tracker) checkCancellable(order *Order) error {
	if order.Status.IsTerminal() {
		return ErrOrderClosed
	}
	at, err := order.ScheduledAt(t.loc)
	if err != nil {
		return err
	}
	if at.Sub(t.now()) <= t.window {
		return ErrCancellationWindow
	}
	return nil
}

// Cancel asks the backend to cancel order. Orders inside the cancellation
// window are rejected locally without contacting the backend.
func (t *Tracker) Cancel(ctx context.Context, order *Order, reason string) (*CancelResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := t.checkCancellable(order); err != nil {
		log.Info().Err(err).Str("order_number", order.OrderNumber).Msg("tracker: cancellation rejected")
		return nil, err
	}
	if !t.gate.Online(ctx) {
		return nil, fallback.Offline(fallback.FeatureOrder)
	}

	result, err := t.remote.CancelOrder(ctx, order.GuestToken, reason)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("tracker: failed to cancel order %s: %w", order.OrderNumber, err)
	}

	log.Info().
		Str("order_number", order.OrderNumber).
		Stringer("refund", result.RefundAmount).
		Msg("tracker: order cancelled")
	return result, nil
}

// EstimateRefund is the refund the policy would give if order were
// cancelled now.
func (t *Tracker) EstimateRefund(order *Order) money.Amount {
	return EstimateRefund(order, t.now(), t.loc)
}
