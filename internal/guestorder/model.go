package guestorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/money"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrCancellationWindow = errors.New("orders can only be cancelled more than 24 hours before pickup")
	ErrOrderClosed        = errors.New("order is already completed or cancelled")
	ErrReasonRequired     = errors.New("a cancellation reason is required")
	ErrInvalidSchedule    = errors.New("invalid pickup date or time")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

type PaymentMethod string

const (
	PaymentOnline  PaymentMethod = "online"
	PaymentDeposit PaymentMethod = "deposit"
	PaymentInStore PaymentMethod = "in-store"
)

type CustomerInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,storefront_email"`
	Phone     string `json:"phone" validate:"required,storefront_phone"`
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode" validate:"required,storefront_zip"`
}

type PaymentInfo struct {
	Method          PaymentMethod `json:"method"`
	Status          string        `json:"status,omitempty"`
	PaymentMethodID string        `json:"paymentMethodId,omitempty"`
	DepositAmount   money.Amount  `json:"depositAmount,omitempty"`
	TotalAmount     money.Amount  `json:"totalAmount"`
}

type TimelineEvent struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Order is a guest order as the live backend reports it.
type Order struct {
	ID                  string          `json:"_id,omitempty"`
	OrderNumber         string          `json:"orderNumber"`
	GuestToken          string          `json:"guestToken"`
	CustomerInfo        CustomerInfo    `json:"customerInfo"`
	OrderType           OrderType       `json:"orderType"`
	PickupDate          string          `json:"pickupDate"`
	PickupTime          string          `json:"pickupTime"`
	DeliveryAddress     *Address        `json:"deliveryAddress,omitempty"`
	Items               []cart.LineItem `json:"items"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	Occasion            string          `json:"occasion,omitempty"`
	Subtotal            money.Amount    `json:"subtotal"`
	Tax                 money.Amount    `json:"tax"`
	DeliveryFee         money.Amount    `json:"deliveryFee"`
	Total               money.Amount    `json:"total"`
	PaymentInfo         PaymentInfo     `json:"paymentInfo"`
	Status              Status          `json:"status"`
	Timeline            []TimelineEvent `json:"timeline,omitempty"`
	CancellationDate    *time.Time      `json:"cancellationDate,omitempty"`
	CancellationReason  string          `json:"cancellationReason,omitempty"`
	RefundAmount        money.Amount    `json:"refundAmount,omitempty"`
	CreatedAt           time.Time       `json:"createdAt,omitempty"`
}

// ScheduledAt is the pickup or delivery moment in loc. PickupDate may be a
// plain date or a full timestamp; only its calendar date is used.
func (o *Order) ScheduledAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	var year int
	var month time.Month
	var day int
	if d, err := time.Parse("2006-01-02", o.PickupDate); err == nil {
		year, month, day = d.Date()
	} else if ts, err := time.Parse(time.RFC3339, o.PickupDate); err == nil {
		year, month, day = ts.Date()
	} else {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidSchedule, o.PickupDate)
	}

	hour, minute := 0, 0
	if o.PickupTime != "" {
		t, err := time.Parse("15:04", o.PickupTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidSchedule, o.PickupTime)
		}
		hour, minute = t.Hour(), t.Minute()
	}

	return time.Date(year, month, day, hour, minute, 0, 0, loc), nil
}

// AppendTimeline moves the order to status and records the event. The
// timeline is only ever appended to.
func (o *Order) AppendTimeline(status Status, at time.Time, note string) error {
	if !CanTransition(o.Status, status) {
		return fmt.Errorf("%w: from '%s' to '%s'", ErrInvalidTransition, o.Status, status)
	}
	o.Status = status
	o.Timeline = append(o.Timeline, TimelineEvent{Status: status, Timestamp: at, Note: note})
	return nil
}

// TrackingInfo is what the backend returns after a guest order is created.
type TrackingInfo struct {
	OrderNumber string `json:"orderNumber"`
	GuestToken  string `json:"guestToken"`
	Email       string `json:"email"`
	TrackingURL string `json:"trackingUrl,omitempty"`
}

// SavedOrder is one entry of the recent-orders list kept on this device.
type SavedOrder struct {
	OrderNumber string    `json:"orderNumber"`
	GuestToken  string    `json:"guestToken"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRequest is the payload sent to create a guest order.
type CreateRequest struct {
	CustomerInfo        CustomerInfo    `json:"customerInfo"`
	OrderType           OrderType       `json:"orderType"`
	PickupDate          string          `json:"pickupDate"`
	PickupTime          string          `json:"pickupTime"`
	DeliveryAddress     *Address        `json:"deliveryAddress,omitempty"`
	Items               []cart.LineItem `json:"items"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	Occasion            string          `json:"occasion,omitempty"`
	Subtotal            money.Amount    `json:"subtotal"`
	Tax                 money.Amount    `json:"tax"`
	DeliveryFee         money.Amount    `json:"deliveryFee"`
	Total               money.Amount    `json:"total"`
	PaymentInfo         PaymentInfo     `json:"paymentInfo"`
}

// CancelResult is the backend's answer to a cancellation.
type CancelResult struct {
	Order        Order        `json:"order"`
	RefundAmount money.Amount `json:"refundAmount"`
}

// CreateResult is the backend's answer to a new guest order.
type CreateResult struct {
	Order        Order        `json:"order"`
	TrackingInfo TrackingInfo `json:"trackingInfo"`
}
