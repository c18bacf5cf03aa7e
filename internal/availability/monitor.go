package availability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a single health probe.
const DefaultTimeout = 1000 * time.Millisecond

// HealthPath is appended to the base URL for probes.
const HealthPath = "/api/health"

const probeKey = "health"

// Monitor decides whether the live storefront API is reachable. The first
// Check probes the health endpoint; the result is cached until Invalidate or
// Recheck. MarkUnavailable only ever degrades the cached state.
type Monitor struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	now      func() time.Time
	observer Observer

	group singleflight.Group

	mu          sync.RWMutex
	state       State
	lastChecked time.Time
}

type Option func(*Monitor)

func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(m *Monitor) {
		if c != nil {
			m.client = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		m.observer = o
	}
}

// NewMonitor creates a monitor for the API rooted at baseURL. An empty
// baseURL means no live service is configured.
func NewMonitor(baseURL string, opts ...Option) *Monitor {
	m := &Monitor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		now:     time.Now,
		state:   StateUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether a live endpoint is configured at all.
func (m *Monitor) Configured() bool {
	return m.baseURL != ""
}

// Check returns whether the backend is available. Concurrent callers during
// an in-flight probe share its result.
func (m *Monitor) Check(ctx context.Context) bool {
	if !m.Configured() {
		m.resolve(StateUnavailable, false)
		return false
	}

	if st := m.State(); st != StateUnknown {
		return st == StateAvailable
	}

	v, _, shared := m.group.Do(probeKey, func() (interface{}, error) {
		if st := m.State(); st != StateUnknown {
			return st == StateAvailable, nil
		}
		ok := m.probe(ctx)
		return m.resolve(stateFor(ok), false) == StateAvailable, nil
	})
	if shared {
		log.Debug().Msg("availability: joined in-flight probe")
	}

	return v.(bool)
}

// Recheck probes unconditionally and stores the result, which may promote
// the state back to available.
func (m *Monitor) Recheck(ctx context.Context) bool {
	if !m.Configured() {
		m.resolve(StateUnavailable, false)
		return false
	}

	v, _, _ := m.group.Do(probeKey, func() (interface{}, error) {
		ok := m.probe(ctx)
		return m.resolve(stateFor(ok), true) == StateAvailable, nil
	})
	return v.(bool)
}

// MarkUnavailable records that a live call failed. The state never moves
// from unavailable back to available here.
func (m *Monitor) MarkUnavailable(reason string) {
	m.mu.Lock()
	prev := m.state
	m.state = StateUnavailable
	m.lastChecked = m.now()
	m.mu.Unlock()

	if prev != StateUnavailable {
		log.Warn().Str("reason", reason).Stringer("previous_state", prev).Msg("availability: backend marked unavailable")
		m.notifyState(StateUnavailable)
	}
}

// Invalidate forgets the cached result so the next Check probes again.
func (m *Monitor) Invalidate() {
	m.mu.Lock()
	m.state = StateUnknown
	m.mu.Unlock()
	m.notifyState(StateUnknown)
}

// State returns the cached state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Status returns the cached state and when it was last set.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{State: m.state, LastChecked: m.lastChecked}
}

// Watch re-probes every interval while the backend is unavailable, until ctx
// is done. A zero interval disables watching.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 || !m.Configured() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.State() != StateUnavailable {
				continue
			}
			if m.Recheck(ctx) {
				log.Info().Msg("availability: backend recovered")
			}
		}
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	// the probe outlives any single caller that joined it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	started := m.now()
	ok := m.doProbe(ctx)
	if m.observer != nil {
		m.observer.ProbeCompleted(ok, m.now().Sub(started))
	}
	return ok
}

func (m *Monitor) doProbe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+HealthPath, nil)
	if err != nil {
		log.Warn().Err(err).Msg("availability: failed to build probe request")
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		log.Info().Err(err).Msg("availability: backend not available, running in static mode")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Info().Int("status", resp.StatusCode).Msg("availability: health probe returned non-success status")
		return false
	}
	return true
}

// resolve stores a probe outcome. Without force, an unknown state is the
// only one that may change, so a concurrent MarkUnavailable wins.
func (m *Monitor) resolve(s State, force bool) State {
	m.mu.Lock()
	changed := false
	if force || m.state == StateUnknown {
		changed = m.state != s
		m.state = s
	}
	m.lastChecked = m.now()
	current := m.state
	m.mu.Unlock()

	if changed {
		m.notifyState(current)
	}
	return current
}

func (m *Monitor) notifyState(s State) {
	if m.observer != nil {
		m.observer.StateChanged(s)
	}
}

func stateFor(ok bool) State {
	if ok {
		return StateAvailable
	}
	return StateUnavailable
}
