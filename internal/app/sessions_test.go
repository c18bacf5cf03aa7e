package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/app"
	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/checkout"
	"github.com/oyhutmarket/storefront/internal/guestorder"
	"github.com/oyhutmarket/storefront/internal/money"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type acceptingCreator struct{}

func (acceptingCreator) CreateGuestOrder(_ context.Context, req guestorder.CreateRequest) (*guestorder.CreateResult, error) {
	return &guestorder.CreateResult{
		Order:        guestorder.Order{OrderNumber: "BK-7", Status: guestorder.StatusPending, Total: req.Total},
		TrackingInfo: guestorder.TrackingInfo{OrderNumber: "BK-7", GuestToken: "tok-7", Email: req.CustomerInfo.Email},
	}, nil
}

func oneCake() []cart.LineItem {
	return []cart.LineItem{{ID: "a", ProductID: "bake-001", Quantity: 1, UnitPrice: money.Cents(3500), TotalPrice: money.Cents(3500)}}
}

func TestSessions_ExpireAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	sessions := app.NewSessions(checkout.Deps{}, app.WithSessionTTL(10*time.Minute), app.WithSessionClock(clock.Now))

	stale, _, err := sessions.Start(oneCake())
	require.NoError(t, err)
	kept, _, err := sessions.Start(oneCake())
	require.NoError(t, err)
	require.Equal(t, 2, sessions.Len())

	clock.Advance(6 * time.Minute)
	_, err = sessions.Get(kept)
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = sessions.Get(stale)
	require.ErrorIs(t, err, app.ErrSessionNotFound)
	assert.Equal(t, 1, sessions.Len())

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, sessions.Sweep())
	assert.Equal(t, 0, sessions.Len())
}

func TestSessions_StartSweepsAbandoned(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	sessions := app.NewSessions(checkout.Deps{}, app.WithSessionTTL(time.Minute), app.WithSessionClock(clock.Now))

	for i := 0; i < 5; i++ {
		_, _, err := sessions.Start(oneCake())
		require.NoError(t, err)
	}
	require.Equal(t, 5, sessions.Len())

	clock.Advance(2 * time.Minute)
	_, _, err := sessions.Start(oneCake())
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.Len())
}

func TestSessions_LimitEvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	sessions := app.NewSessions(checkout.Deps{}, app.WithSessionLimit(2), app.WithSessionClock(clock.Now))

	first, _, err := sessions.Start(oneCake())
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, _, err := sessions.Start(oneCake())
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = sessions.Get(first)
	require.NoError(t, err)

	clock.Advance(time.Second)
	third, _, err := sessions.Start(oneCake())
	require.NoError(t, err)
	assert.Equal(t, 2, sessions.Len())

	_, err = sessions.Get(second)
	require.ErrorIs(t, err, app.ErrSessionNotFound)
	for _, id := range []string{first, third} {
		_, err = sessions.Get(id)
		assert.NoError(t, err, id)
	}
}

func TestSessions_FinishDropsConfirmed(t *testing.T) {
	ctx := context.Background()
	sessions := app.NewSessions(checkout.Deps{Creator: acceptingCreator{}})

	id, session, err := sessions.Start(oneCake())
	require.NoError(t, err)
	assert.False(t, sessions.Finish(id, session))
	require.Equal(t, 1, sessions.Len())

	require.NoError(t, session.Continue())
	require.NoError(t, session.SubmitCustomerInfo(checkout.CustomerForm{
		CustomerInfo: guestorder.CustomerInfo{
			FirstName: "Ana",
			LastName:  "Lopez",
			Email:     "ana@example.com",
			Phone:     "(360) 555-1234",
		},
		OrderType:  guestorder.OrderTypePickup,
		PickupDate: "2026-11-04",
		PickupTime: "10:30",
	}))
	require.NoError(t, session.Pay(ctx, checkout.PaymentInput{Method: guestorder.PaymentInStore}))

	assert.True(t, sessions.Finish(id, session))
	assert.Equal(t, 0, sessions.Len())
	_, err = sessions.Get(id)
	require.ErrorIs(t, err, app.ErrSessionNotFound)
	assert.Equal(t, "BK-7", session.View().Confirmation.TrackingInfo.OrderNumber)
}
