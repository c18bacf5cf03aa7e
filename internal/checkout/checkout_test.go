package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/checkout"
	"github.com/oyhutmarket/storefront/internal/guestorder"
	"github.com/oyhutmarket/storefront/internal/money"
	"github.com/oyhutmarket/storefront/internal/payment"
	"github.com/oyhutmarket/storefront/internal/storage"
)

type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) CreateGuestOrder(ctx context.Context, req guestorder.CreateRequest) (*guestorder.CreateResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*guestorder.CreateResult)
	return r, args.Error(1)
}

type MockTokenizer struct {
	mock.Mock
}

func (m *MockTokenizer) Tokenize(ctx context.Context, source string, billing payment.BillingDetails) (string, error) {
	args := m.Called(ctx, source, billing)
	return args.String(0), args.Error(1)
}

type fixedGate bool

func (g fixedGate) Online(context.Context) bool { return bool(g) }

type clientErr struct{}

func (clientErr) Error() string   { return "Pickup date must be at least 48 hours away" }
func (clientErr) StatusCode() int { return 400 }

func hundredDollarCart() []cart.LineItem {
	return []cart.LineItem{
		{ID: "a", ProductID: "bake-001", Quantity: 2, UnitPrice: money.Cents(3500), TotalPrice: money.Cents(7000)},
		{ID: "b", ProductID: "bake-003", Quantity: 4, UnitPrice: money.Cents(750), TotalPrice: money.Cents(3000)},
	}
}

func validPickupForm() checkout.CustomerForm {
	return checkout.CustomerForm{
		CustomerInfo: guestorder.CustomerInfo{
			FirstName: "Ana",
			LastName:  "Lopez",
			Email:     "ana@example.com",
			Phone:     "(360) 555-1234",
		},
		OrderType:  guestorder.OrderTypePickup,
		PickupDate: "2026-11-04",
		PickupTime: "10:30",
	}
}

func confirmation(number string) *guestorder.CreateResult {
	return &guestorder.CreateResult{
		Order:        guestorder.Order{OrderNumber: number, Status: guestorder.StatusPending},
		TrackingInfo: guestorder.TrackingInfo{OrderNumber: number, GuestToken: "tok-" + number, Email: "ana@example.com"},
	}
}

func TestPricing_ComputeTotals(t *testing.T) {
	p := checkout.DefaultPricing()

	pickup := p.ComputeTotals(hundredDollarCart(), guestorder.OrderTypePickup)
	assert.Equal(t, checkout.Totals{
		Subtotal:    money.Cents(10000),
		Tax:         money.Cents(1010),
		DeliveryFee: money.Zero,
		Total:       money.Cents(11010),
	}, pickup)

	delivery := p.ComputeTotals(hundredDollarCart(), guestorder.OrderTypeDelivery)
	assert.Equal(t, money.Cents(1500), delivery.DeliveryFee)
	assert.Equal(t, money.Cents(12510), delivery.Total)

	assert.Equal(t, money.Cents(6255), p.MinimumDeposit(delivery.Total))
}

func TestSession_FullFlow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(c *MockCreator, tok *MockTokenizer)
		input checkout.PaymentInput
		check func(t *testing.T, info guestorder.PaymentInfo)
	}{
		{
			name: "online",
			setup: func(c *MockCreator, tok *MockTokenizer) {
				tok.On("Tokenize", mock.Anything, "pm_card_visa", payment.BillingDetails{
					Name: "Ana Lopez", Email: "ana@example.com", Phone: "(360) 555-1234",
				}).Return("pm_card_visa", nil).Once()
			},
			input: checkout.PaymentInput{Method: guestorder.PaymentOnline, CardSource: "pm_card_visa"},
			check: func(t *testing.T, info guestorder.PaymentInfo) {
				assert.Equal(t, "pm_card_visa", info.PaymentMethodID)
				assert.Equal(t, money.Cents(11010), info.TotalAmount)
			},
		},
		{
			name:  "deposit_at_minimum",
			setup: func(*MockCreator, *MockTokenizer) {},
			input: checkout.PaymentInput{Method: guestorder.PaymentDeposit, DepositAmount: money.Cents(5505)},
			check: func(t *testing.T, info guestorder.PaymentInfo) {
				assert.Equal(t, money.Cents(5505), info.DepositAmount)
			},
		},
		{
			name:  "in_store",
			setup: func(*MockCreator, *MockTokenizer) {},
			input: checkout.PaymentInput{Method: guestorder.PaymentInStore},
			check: func(t *testing.T, info guestorder.PaymentInfo) {
				assert.Empty(t, info.PaymentMethodID)
				assert.Equal(t, money.Cents(11010), info.TotalAmount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := new(MockCreator)
			tok := new(MockTokenizer)
			tt.setup(creator, tok)

			var sent guestorder.CreateRequest
			creator.On("CreateGuestOrder", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { sent = args.Get(1).(guestorder.CreateRequest) }).
				Return(confirmation("BK-1001"), nil).Once()

			recent := guestorder.NewRecentOrders(storage.NewMemory(), 10)
			s := checkout.NewSession(hundredDollarCart(), checkout.Deps{
				Creator:   creator,
				Tokenizer: tok,
				Recent:    recent,
				Gate:      fixedGate(true),
			})

			require.NoError(t, s.Continue())
			require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))
			require.Equal(t, checkout.StepPaying, s.Step())
			require.NoError(t, s.Pay(ctx, tt.input))

			view := s.View()
			assert.Equal(t, checkout.StepConfirmed, view.Step)
			require.NotNil(t, view.Confirmation)
			assert.Equal(t, "BK-1001", view.Confirmation.TrackingInfo.OrderNumber)

			assert.Equal(t, tt.input.Method, sent.PaymentInfo.Method)
			assert.Equal(t, money.Cents(11010), sent.Total)
			assert.Len(t, sent.Items, 2)
			tt.check(t, sent.PaymentInfo)

			saved := recent.List(ctx)
			require.Len(t, saved, 1)
			assert.Equal(t, "tok-BK-1001", saved[0].GuestToken)

			creator.AssertExpectations(t)
			tok.AssertExpectations(t)
		})
	}
}

func TestSession_SubmitCustomerInfo_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *checkout.CustomerForm)
		want   map[string]string
	}{
		{
			name: "missing_names",
			mutate: func(f *checkout.CustomerForm) {
				f.CustomerInfo.FirstName = " "
				f.CustomerInfo.LastName = ""
			},
			want: map[string]string{
				"customerInfo.firstName": "First name is required",
				"customerInfo.lastName":  "Last name is required",
			},
		},
		{
			name:   "bad_email",
			mutate: func(f *checkout.CustomerForm) { f.CustomerInfo.Email = "ana@example" },
			want:   map[string]string{"customerInfo.email": "Invalid email format"},
		},
		{
			name:   "bad_phone",
			mutate: func(f *checkout.CustomerForm) { f.CustomerInfo.Phone = "call me" },
			want:   map[string]string{"customerInfo.phone": "Invalid phone format"},
		},
		{
			name: "missing_schedule",
			mutate: func(f *checkout.CustomerForm) {
				f.PickupDate = ""
				f.PickupTime = ""
			},
			want: map[string]string{
				"pickupDate": "Pickup date is required",
				"pickupTime": "Pickup time is required",
			},
		},
		{
			name: "delivery_without_address",
			mutate: func(f *checkout.CustomerForm) {
				f.OrderType = guestorder.OrderTypeDelivery
			},
			want: map[string]string{
				"deliveryAddress.street":  "Street address is required",
				"deliveryAddress.city":    "City is required",
				"deliveryAddress.zipCode": "ZIP code is required",
			},
		},
		{
			name: "delivery_bad_zip",
			mutate: func(f *checkout.CustomerForm) {
				f.OrderType = guestorder.OrderTypeDelivery
				f.DeliveryAddress = &guestorder.Address{Street: "1 Main St", City: "Ocean Shores", ZipCode: "9856"}
			},
			want: map[string]string{"deliveryAddress.zipCode": "Invalid ZIP code format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := checkout.NewSession(hundredDollarCart(), checkout.Deps{})
			require.NoError(t, s.Continue())

			form := validPickupForm()
			tt.mutate(&form)
			err := s.SubmitCustomerInfo(form)

			var verr *checkout.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.want, verr.Fields)
			assert.Equal(t, checkout.StepEnteringCustomerInfo, s.Step())
			assert.Equal(t, tt.want, s.View().FieldErrors)
		})
	}
}

func TestSession_DeliveryRecomputesTotals(t *testing.T) {
	s := checkout.NewSession(hundredDollarCart(), checkout.Deps{})
	require.NoError(t, s.Continue())

	form := validPickupForm()
	form.OrderType = guestorder.OrderTypeDelivery
	form.DeliveryAddress = &guestorder.Address{Street: "1 Main St", City: "Ocean Shores", State: "WA", ZipCode: "98569"}
	require.NoError(t, s.SubmitCustomerInfo(form))

	view := s.View()
	assert.Equal(t, money.Cents(1010), view.Totals.Tax)
	assert.Equal(t, money.Cents(12510), view.Totals.Total)
	require.NotNil(t, view.Draft.DeliveryAddress)
	assert.Equal(t, "98569", view.Draft.DeliveryAddress.ZipCode)
}

func TestSession_PaymentPreconditions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		deps    func() checkout.Deps
		input   checkout.PaymentInput
		wantErr error
	}{
		{
			name:    "deposit_below_half",
			deps:    func() checkout.Deps { return checkout.Deps{Creator: new(MockCreator)} },
			input:   checkout.PaymentInput{Method: guestorder.PaymentDeposit, DepositAmount: money.Cents(5504)},
			wantErr: checkout.ErrDepositTooLow,
		},
		{
			name: "card_rejected",
			deps: func() checkout.Deps {
				tok := new(MockTokenizer)
				tok.On("Tokenize", mock.Anything, "4242", mock.Anything).Return("", payment.ErrInvalidToken).Once()
				return checkout.Deps{Creator: new(MockCreator), Tokenizer: tok}
			},
			input:   checkout.PaymentInput{Method: guestorder.PaymentOnline, CardSource: "4242"},
			wantErr: payment.ErrInvalidToken,
		},
		{
			name:    "no_tokenizer",
			deps:    func() checkout.Deps { return checkout.Deps{Creator: new(MockCreator)} },
			input:   checkout.PaymentInput{Method: guestorder.PaymentOnline, CardSource: "pm_card_visa"},
			wantErr: payment.ErrNotReady,
		},
		{
			name:    "unknown_method",
			deps:    func() checkout.Deps { return checkout.Deps{Creator: new(MockCreator)} },
			input:   checkout.PaymentInput{Method: "bitcoin"},
			wantErr: checkout.ErrUnknownMethod,
		},
		{
			name:    "offline",
			deps:    func() checkout.Deps { return checkout.Deps{Creator: new(MockCreator), Gate: fixedGate(false)} },
			input:   checkout.PaymentInput{Method: guestorder.PaymentInStore},
			wantErr: checkout.ErrCheckoutOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := tt.deps()
			s := checkout.NewSession(hundredDollarCart(), deps)
			require.NoError(t, s.Continue())
			require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))

			err := s.Pay(ctx, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, checkout.StepPaying, s.Step())
			deps.Creator.(*MockCreator).AssertNotCalled(t, "CreateGuestOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestSession_DepositErrorCarriesMinimum(t *testing.T) {
	s := checkout.NewSession(hundredDollarCart(), checkout.Deps{Creator: new(MockCreator)})
	require.NoError(t, s.Continue())
	require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))

	err := s.Pay(context.Background(), checkout.PaymentInput{Method: guestorder.PaymentDeposit, DepositAmount: money.Cents(100)})

	var perr *checkout.PaymentError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, money.Cents(5505), perr.Minimum)
	assert.Equal(t, "Minimum deposit amount is $55.05", perr.Message)
}

func TestSession_SubmitFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("network_failure_is_retryable", func(t *testing.T) {
		creator := new(MockCreator)
		creator.On("CreateGuestOrder", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
		creator.On("CreateGuestOrder", mock.Anything, mock.Anything).Return(confirmation("BK-2"), nil).Once()

		s := checkout.NewSession(hundredDollarCart(), checkout.Deps{Creator: creator})
		require.NoError(t, s.Continue())
		require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))

		in := checkout.PaymentInput{Method: guestorder.PaymentInStore}
		err := s.Pay(ctx, in)
		var serr *checkout.SubmitError
		require.True(t, errors.As(err, &serr))
		assert.True(t, serr.Retryable)
		assert.Equal(t, "Failed to submit order. Please try again.", serr.Message)
		assert.Equal(t, checkout.StepPaying, s.Step())

		require.NoError(t, s.Pay(ctx, in))
		assert.Equal(t, checkout.StepConfirmed, s.Step())
		creator.AssertExpectations(t)
	})

	t.Run("rejected_order_is_not_retryable", func(t *testing.T) {
		creator := new(MockCreator)
		creator.On("CreateGuestOrder", mock.Anything, mock.Anything).Return(nil, clientErr{}).Once()

		s := checkout.NewSession(hundredDollarCart(), checkout.Deps{Creator: creator})
		require.NoError(t, s.Continue())
		require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))

		err := s.Pay(ctx, checkout.PaymentInput{Method: guestorder.PaymentInStore})
		var serr *checkout.SubmitError
		require.True(t, errors.As(err, &serr))
		assert.False(t, serr.Retryable)
		assert.Equal(t, "Pickup date must be at least 48 hours away", serr.Message)
	})
}

func TestSession_Steps(t *testing.T) {
	creator := new(MockCreator)
	creator.On("CreateGuestOrder", mock.Anything, mock.Anything).Return(confirmation("BK-3"), nil).Once()
	s := checkout.NewSession(hundredDollarCart(), checkout.Deps{Creator: creator})

	require.ErrorIs(t, s.SubmitCustomerInfo(validPickupForm()), checkout.ErrWrongStep)
	require.ErrorIs(t, s.Pay(context.Background(), checkout.PaymentInput{Method: guestorder.PaymentInStore}), checkout.ErrWrongStep)

	require.NoError(t, s.Back())
	assert.Equal(t, checkout.StepReviewingOrder, s.Step())

	require.NoError(t, s.Continue())
	require.NoError(t, s.Back())
	assert.Equal(t, checkout.StepReviewingOrder, s.Step())

	require.NoError(t, s.Continue())
	require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))
	require.NoError(t, s.Back())
	assert.Equal(t, checkout.StepEnteringCustomerInfo, s.Step())
	require.NoError(t, s.SubmitCustomerInfo(validPickupForm()))

	require.NoError(t, s.Pay(context.Background(), checkout.PaymentInput{Method: guestorder.PaymentInStore}))
	require.ErrorIs(t, s.Back(), checkout.ErrAlreadyConfirmed)
	require.ErrorIs(t, s.Pay(context.Background(), checkout.PaymentInput{Method: guestorder.PaymentInStore}), checkout.ErrAlreadyConfirmed)
	creator.AssertExpectations(t)
}

func TestSession_EmptyCart(t *testing.T) {
	s := checkout.NewSession(nil, checkout.Deps{})
	require.ErrorIs(t, s.Continue(), checkout.ErrEmptyCart)
	assert.Equal(t, checkout.StepReviewingOrder, s.Step())
}

func TestSession_SnapshotIsolation(t *testing.T) {
	items := hundredDollarCart()
	s := checkout.NewSession(items, checkout.Deps{})

	items[0].Quantity = 99
	items[0].TotalPrice = money.Cents(999900)

	view := s.View()
	assert.Equal(t, 2, view.Draft.Items[0].Quantity)
	assert.Equal(t, money.Cents(11010), view.Totals.Total)
}
