package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/availability"
	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/fallback"
	"github.com/oyhutmarket/storefront/internal/guestorder"
)

func TestCollector_Served(t *testing.T) {
	c := NewCollector()

	c.Served("products", fallback.PathLive)
	c.Served("products", fallback.PathStatic)
	c.Served("products", fallback.PathStatic)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.served.WithLabelValues("products", "live")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.served.WithLabelValues("products", "static")))
}

func TestCollector_StateChanged(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendState.WithLabelValues("unknown")))

	c.StateChanged(availability.StateUnavailable)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.backendState.WithLabelValues("unknown")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.backendState.WithLabelValues("available")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.backendState.WithLabelValues("unavailable")))
}

func TestCollector_Outcomes(t *testing.T) {
	c := NewCollector()

	c.CartMutated(cart.KindBakery, "add_item", nil)
	c.CartMutated(cart.KindBakery, "add_item", errors.New("below minimum"))
	c.OrderSubmitted(guestorder.PaymentDeposit, nil)
	c.ProbeCompleted(false, 1500*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cartMutations.WithLabelValues("bakery", "add_item", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cartMutations.WithLabelValues("bakery", "add_item", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.orders.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.probes))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.Served("featured_products", fallback.PathStatic)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `storefront_reads_served_total{op="featured_products",path="static"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
