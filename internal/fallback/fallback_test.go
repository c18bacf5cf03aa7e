package fallback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/fallback"
)

type MockMonitor struct {
	mock.Mock
}

func (m *MockMonitor) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockMonitor) Check(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockMonitor) MarkUnavailable(reason string) {
	m.Called(reason)
}

type countingObserver struct {
	served map[fallback.Path]int
}

func (c *countingObserver) Served(_ string, path fallback.Path) {
	if c.served == nil {
		c.served = make(map[fallback.Path]int)
	}
	c.served[path]++
}

func TestDo(t *testing.T) {
	errLive := errors.New("connection refused")

	tests := []struct {
		name        string
		setup       func(m *MockMonitor)
		primaryErr  error
		expected    string
		primaryRuns bool
		path        fallback.Path
	}{
		{
			name: "not_configured_skips_probe",
			setup: func(m *MockMonitor) {
				m.On("Configured").Return(false)
			},
			expected: "static",
			path:     fallback.PathStatic,
		},
		{
			name: "unavailable_uses_fallback",
			setup: func(m *MockMonitor) {
				m.On("Configured").Return(true)
				m.On("Check", mock.Anything).Return(false).Once()
			},
			expected: "static",
			path:     fallback.PathStatic,
		},
		{
			name: "available_uses_primary",
			setup: func(m *MockMonitor) {
				m.On("Configured").Return(true)
				m.On("Check", mock.Anything).Return(true).Once()
			},
			expected:    "live",
			primaryRuns: true,
			path:        fallback.PathLive,
		},
		{
			name: "primary_failure_degrades_and_falls_back",
			setup: func(m *MockMonitor) {
				m.On("Configured").Return(true)
				m.On("Check", mock.Anything).Return(true).Once()
				m.On("MarkUnavailable", mock.MatchedBy(func(reason string) bool {
					return reason == "products: connection refused"
				})).Once()
			},
			primaryErr:  errLive,
			expected:    "static",
			primaryRuns: true,
			path:        fallback.PathStatic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := new(MockMonitor)
			tt.setup(monitor)
			obs := &countingObserver{}
			gate := fallback.NewGate(monitor, obs)

			primaryRan := false
			got, err := fallback.Do(context.Background(), gate, "products",
				func(context.Context) (string, error) {
					primaryRan = true
					if tt.primaryErr != nil {
						return "", tt.primaryErr
					}
					return "live", nil
				},
				func(context.Context) (string, error) {
					return "static", nil
				},
			)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.primaryRuns, primaryRan)
			assert.Equal(t, 1, obs.served[tt.path])
			monitor.AssertExpectations(t)
			if tt.name == "not_configured_skips_probe" {
				monitor.AssertNotCalled(t, "Check", mock.Anything)
			}
		})
	}
}

func TestDo_CanceledContextDoesNotDegrade(t *testing.T) {
	monitor := new(MockMonitor)
	monitor.On("Configured").Return(true)
	monitor.On("Check", mock.Anything).Return(true)
	gate := fallback.NewGate(monitor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fallback.Do(ctx, gate, "products",
		func(ctx context.Context) (int, error) { return 0, ctx.Err() },
		func(context.Context) (int, error) { return 1, nil },
	)

	require.ErrorIs(t, err, context.Canceled)
	monitor.AssertNotCalled(t, "MarkUnavailable", mock.Anything)
}

func TestOffline(t *testing.T) {
	u := fallback.Offline(fallback.FeatureReviews)

	assert.False(t, u.Success)
	assert.True(t, u.Offline)
	assert.Equal(t, "Reviews can only be added when online. Please try again later.", u.Message)
	assert.Equal(t, u.Message, u.Error())

	assert.Equal(t, "This feature requires our online services. Please call (360) 555-1234.", fallback.Message("newsletter"))
}

type statusErr int

func (e statusErr) Error() string   { return "status" }
func (e statusErr) StatusCode() int { return int(e) }

func TestDo_ClientErrorDoesNotDegrade(t *testing.T) {
	monitor := new(MockMonitor)
	monitor.On("Configured").Return(true)
	monitor.On("Check", mock.Anything).Return(true)
	gate := fallback.NewGate(monitor, nil)

	_, err := fallback.Do(context.Background(), gate, "login",
		func(context.Context) (int, error) { return 0, statusErr(401) },
		func(context.Context) (int, error) { return 1, nil },
	)

	require.ErrorIs(t, err, statusErr(401))
	monitor.AssertNotCalled(t, "MarkUnavailable", mock.Anything)
}

func TestRead_ClientErrorServesFallback(t *testing.T) {
	monitor := new(MockMonitor)
	monitor.On("Configured").Return(true)
	monitor.On("Check", mock.Anything).Return(true)
	gate := fallback.NewGate(monitor, nil)

	got, err := fallback.Read(context.Background(), gate, "products",
		func(context.Context) (int, error) { return 0, statusErr(400) },
		func(context.Context) (int, error) { return 7, nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 7, got)
	monitor.AssertNotCalled(t, "MarkUnavailable", mock.Anything)
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{statusErr(400), true},
		{statusErr(404), true},
		{statusErr(408), false},
		{statusErr(429), false},
		{statusErr(500), false},
		{errors.New("dial tcp: refused"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fallback.IsClientError(tt.err), "%v", tt.err)
	}
}
