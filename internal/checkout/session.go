package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/fallback"
	"github.com/oyhutmarket/storefront/internal/guestorder"
	"github.com/oyhutmarket/storefront/internal/money"
	"github.com/oyhutmarket/storefront/internal/payment"
)

type Step int

const (
	StepReviewingOrder Step = iota
	StepEnteringCustomerInfo
	StepPaying
	StepConfirmed
)

var stepNames = map[Step]string{
	StepReviewingOrder:       "reviewing-order",
	StepEnteringCustomerInfo: "entering-customer-info",
	StepPaying:               "paying",
	StepConfirmed:            "confirmed",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrWrongStep        = errors.New("action not allowed at this checkout step")
	ErrAlreadyConfirmed = errors.New("order is already confirmed")
	ErrDepositTooLow    = errors.New("deposit is below the minimum")
	ErrUnknownMethod    = errors.New("unknown payment method")

	// ErrCheckoutOffline is returned when an order cannot be placed because
	// the backend is unreachable.
	ErrCheckoutOffline error = fallback.Offline(fallback.FeatureCheckout)
)

// PaymentError is a payment precondition failure the customer can fix.
type PaymentError struct {
	Message string       `json:"message"`
	Minimum money.Amount `json:"minimum,omitempty"`
	Err     error        `json:"-"`
}

func (e *PaymentError) Error() string { return e.Message }
func (e *PaymentError) Unwrap() error { return e.Err }

// SubmitError is a failure to create the order on the backend. Retryable
// errors may succeed on a later attempt with the same input.
type SubmitError struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Err       error  `json:"-"`
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// OrderCreator submits guest orders to the backend.
type OrderCreator interface {
	CreateGuestOrder(ctx context.Context, req guestorder.CreateRequest) (*guestorder.CreateResult, error)
}

// Recorder keeps tracking info for orders placed on this device.
type Recorder interface {
	Save(ctx context.Context, info guestorder.TrackingInfo) error
}

type Gate interface {
	Online(ctx context.Context) bool
}

// Observer is told the outcome of every order submission.
type Observer interface {
	OrderSubmitted(method guestorder.PaymentMethod, err error)
}

type Deps struct {
	Creator   OrderCreator
	Tokenizer payment.Tokenizer
	Recent    Recorder
	Gate      Gate
	Pricing   Pricing
	Validate  *validator.Validate
	Observer  Observer
}

// Draft is the order being assembled.
type Draft struct {
	Items               []cart.LineItem         `json:"items"`
	OrderType           guestorder.OrderType    `json:"orderType"`
	CustomerInfo        guestorder.CustomerInfo `json:"customerInfo"`
	PickupDate          string                  `json:"pickupDate"`
	PickupTime          string                  `json:"pickupTime"`
	DeliveryAddress     *guestorder.Address     `json:"deliveryAddress,omitempty"`
	SpecialInstructions string                  `json:"specialInstructions,omitempty"`
	Occasion            string                  `json:"occasion,omitempty"`
}

type PaymentInput struct {
	Method        guestorder.PaymentMethod `json:"method" validate:"required,oneof=online deposit in-store"`
	CardSource    string                   `json:"cardSource,omitempty"`
	DepositAmount money.Amount             `json:"depositAmount,omitempty"`
}

// View is a read-only copy of a session's state.
type View struct {
	Step         Step                     `json:"step"`
	Draft        Draft                    `json:"draft"`
	Totals       Totals                   `json:"totals"`
	FieldErrors  map[string]string        `json:"fieldErrors,omitempty"`
	Confirmation *guestorder.CreateResult `json:"confirmation,omitempty"`
}

// Session walks one guest order from review to confirmation.
type Session struct {
	mu           sync.Mutex
	deps         Deps
	step         Step
	draft        Draft
	totals       Totals
	fieldErrors  map[string]string
	confirmation *guestorder.CreateResult
}

// NewSession starts checkout over a copy of items; later cart changes do
// not affect it.
func NewSession(items []cart.LineItem, deps Deps) *Session {
	if deps.Validate == nil {
		deps.Validate = NewValidator()
	}
	if deps.Pricing == (Pricing{}) {
		deps.Pricing = DefaultPricing()
	}

	snapshot := make([]cart.LineItem, len(items))
	copy(snapshot, items)

	s := &Session{
		deps: deps,
		step: StepReviewingOrder,
		draft: Draft{
			Items:     snapshot,
			OrderType: guestorder.OrderTypePickup,
		},
	}
	s.totals = deps.Pricing.ComputeTotals(snapshot, s.draft.OrderType)
	return s
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Step:         s.step,
		Draft:        s.draft,
		Totals:       s.totals,
		Confirmation: s.confirmation,
	}
	v.Draft.Items = append([]cart.LineItem(nil), s.draft.Items...)
	if len(s.fieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(s.fieldErrors))
		for k, msg := range s.fieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	return v
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Continue accepts the reviewed order and moves to customer information.
func (s *Session) Continue() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepReviewingOrder {
		return fmt.Errorf("%w: continue from %s", ErrWrongStep, s.step)
	}
	if len(s.draft.Items) == 0 {
		return ErrEmptyCart
	}

	s.totals = s.deps.Pricing.ComputeTotals(s.draft.Items, s.draft.OrderType)
	s.step = StepEnteringCustomerInfo
	return nil
}

// SubmitCustomerInfo validates the form and moves to payment. On failure
// the step is unchanged and the field errors are returned and kept.
func (s *Session) SubmitCustomerInfo(form CustomerForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepEnteringCustomerInfo {
		return fmt.Errorf("%w: customer info at %s", ErrWrongStep, s.step)
	}

	trimForm(&form)
	if err := form.Validate(s.deps.Validate); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.fieldErrors = verr.Fields
		}
		return err
	}

	s.fieldErrors = nil
	s.draft.CustomerInfo = form.CustomerInfo
	s.draft.OrderType = form.OrderType
	s.draft.PickupDate = form.PickupDate
	s.draft.PickupTime = form.PickupTime
	s.draft.SpecialInstructions = form.SpecialInstructions
	s.draft.Occasion = form.Occasion
	s.draft.DeliveryAddress = nil
	if form.OrderType == guestorder.OrderTypeDelivery {
		addr := *form.DeliveryAddress
		s.draft.DeliveryAddress = &addr
	}

	s.totals = s.deps.Pricing.ComputeTotals(s.draft.Items, s.draft.OrderType)
	s.step = StepPaying
	return nil
}

func trimForm(f *CustomerForm) {
	f.CustomerInfo.FirstName = strings.TrimSpace(f.CustomerInfo.FirstName)
	f.CustomerInfo.LastName = strings.TrimSpace(f.CustomerInfo.LastName)
	f.CustomerInfo.Email = strings.TrimSpace(f.CustomerInfo.Email)
	f.CustomerInfo.Phone = strings.TrimSpace(f.CustomerInfo.Phone)
}

// Pay checks the payment preconditions, submits the order and confirms it.
// The session lock is held for the whole submission so a second Pay waits
// and then fails on the step check instead of placing a duplicate order.
func (s *Session) Pay(ctx context.Context, in PaymentInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step == StepConfirmed {
		return ErrAlreadyConfirmed
	}
	if s.step != StepPaying {
		return fmt.Errorf("%w: pay at %s", ErrWrongStep, s.step)
	}
	if s.deps.Gate != nil && !s.deps.Gate.Online(ctx) {
		return ErrCheckoutOffline
	}

	info, err := s.paymentInfo(ctx, in)
	if err != nil {
		return err
	}

	req := guestorder.CreateRequest{
		CustomerInfo:        s.draft.CustomerInfo,
		OrderType:           s.draft.OrderType,
		PickupDate:          s.draft.PickupDate,
		PickupTime:          s.draft.PickupTime,
		DeliveryAddress:     s.draft.DeliveryAddress,
		Items:               s.draft.Items,
		SpecialInstructions: s.draft.SpecialInstructions,
		Occasion:            s.draft.Occasion,
		Subtotal:            s.totals.Subtotal,
		Tax:                 s.totals.Tax,
		DeliveryFee:         s.totals.DeliveryFee,
		Total:               s.totals.Total,
		PaymentInfo:         info,
	}

	result, err := s.deps.Creator.CreateGuestOrder(ctx, req)
	if s.deps.Observer != nil {
		s.deps.Observer.OrderSubmitted(in.Method, err)
	}
	if err != nil {
		log.Error().Err(err).Str("payment_method", string(in.Method)).Msg("checkout: failed to submit order")
		return &SubmitError{
			Message:   submitMessage(err),
			Retryable: !fallback.IsClientError(err),
			Err:       err,
		}
	}

	if s.deps.Recent != nil {
		if err := s.deps.Recent.Save(ctx, result.TrackingInfo); err != nil {
			log.Warn().Err(err).Str("order_number", result.TrackingInfo.OrderNumber).Msg("checkout: failed to remember order")
		}
	}

	s.confirmation = result
	s.step = StepConfirmed
	log.Info().
		Str("order_number", result.TrackingInfo.OrderNumber).
		Stringer("total", s.totals.Total).
		Str("payment_method", string(in.Method)).
		Msg("checkout: order placed")
	return nil
}

func (s *Session) paymentInfo(ctx context.Context, in PaymentInput) (guestorder.PaymentInfo, error) {
	total := s.totals.Total

	switch in.Method {
	case guestorder.PaymentOnline:
		if s.deps.Tokenizer == nil {
			return guestorder.PaymentInfo{}, &PaymentError{Message: "Payment system not ready. Please wait a moment and try again.", Err: payment.ErrNotReady}
		}
		token, err := s.deps.Tokenizer.Tokenize(ctx, in.CardSource, payment.BillingDetails{
			Name:  s.draft.CustomerInfo.FirstName + " " + s.draft.CustomerInfo.LastName,
			Email: s.draft.CustomerInfo.Email,
			Phone: s.draft.CustomerInfo.Phone,
		})
		if err != nil {
			msg := "Payment processing failed. Please try again."
			if errors.Is(err, payment.ErrNotReady) {
				msg = "Payment system not ready. Please wait a moment and try again."
			}
			return guestorder.PaymentInfo{}, &PaymentError{Message: msg, Err: err}
		}
		return guestorder.PaymentInfo{
			Method:          guestorder.PaymentOnline,
			Status:          "pending",
			PaymentMethodID: token,
			TotalAmount:     total,
		}, nil

	case guestorder.PaymentDeposit:
		minimum := s.deps.Pricing.MinimumDeposit(total)
		if in.DepositAmount < minimum {
			return guestorder.PaymentInfo{}, &PaymentError{
				Message: fmt.Sprintf("Minimum deposit amount is %s", minimum),
				Minimum: minimum,
				Err:     ErrDepositTooLow,
			}
		}
		return guestorder.PaymentInfo{
			Method:        guestorder.PaymentDeposit,
			Status:        "pending",
			DepositAmount: in.DepositAmount,
			TotalAmount:   total,
		}, nil

	case guestorder.PaymentInStore:
		return guestorder.PaymentInfo{
			Method:      guestorder.PaymentInStore,
			Status:      "pending",
			TotalAmount: total,
		}, nil

	default:
		return guestorder.PaymentInfo{}, &PaymentError{Message: "Please choose a payment method.", Err: ErrUnknownMethod}
	}
}

func submitMessage(err error) string {
	if fallback.IsClientError(err) {
		return err.Error()
	}
	return "Failed to submit order. Please try again."
}

// Back returns to the previous step. A confirmed order cannot go back.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepConfirmed:
		return ErrAlreadyConfirmed
	case StepReviewingOrder:
		return nil
	default:
		s.step--
		return nil
	}
}
