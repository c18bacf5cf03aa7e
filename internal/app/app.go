// Package app wires the storefront's components into one explicit state
// object.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/availability"
	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/catalog"
	"github.com/oyhutmarket/storefront/internal/checkout"
	"github.com/oyhutmarket/storefront/internal/config"
	"github.com/oyhutmarket/storefront/internal/fallback"
	"github.com/oyhutmarket/storefront/internal/guestorder"
	"github.com/oyhutmarket/storefront/internal/metrics"
	"github.com/oyhutmarket/storefront/internal/money"
	"github.com/oyhutmarket/storefront/internal/payment"
	"github.com/oyhutmarket/storefront/internal/remote"
	"github.com/oyhutmarket/storefront/internal/storage"
)

var ErrUnknownCart = errors.New("unknown cart")

// App holds every long-lived component. There is no package-level state;
// tests build as many Apps as they need.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Metrics  *metrics.Collector
	Monitor  *availability.Monitor
	Gate     *fallback.Gate
	Remote   *remote.Client
	Catalog  catalog.Service
	Recent   *guestorder.RecentOrders
	Tracker  *guestorder.Tracker
	Checkout *Sessions

	carts   map[cart.Kind]*cart.Engine
	repo    cart.Repository
	stops   []func()
	cancel  context.CancelFunc
	started bool
}

// New builds the application from cfg. It opens storage but does not load
// any state; call Start for that.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: failed to open storage: %w", err)
	}
	return NewWithStore(cfg, store), nil
}

// NewWithStore builds the application over an already open store.
func NewWithStore(cfg *config.Config, store storage.Store) *App {
	collector := metrics.NewCollector()

	monitor := availability.NewMonitor(cfg.API.URL,
		availability.WithTimeout(cfg.API.ProbeTimeout),
		availability.WithObserver(collector),
	)
	gate := fallback.NewGate(monitor, collector)
	client := remote.NewClient(cfg.API.URL, remote.WithTimeout(cfg.API.RequestTimeout))

	var loader *catalog.Loader
	if cfg.Catalog.DataDir != "" {
		loader = catalog.NewLoader(os.DirFS(cfg.Catalog.DataDir))
	} else {
		loader = catalog.NewLoader(nil)
	}

	a := &App{
		Config:  cfg,
		Store:   store,
		Metrics: collector,
		Monitor: monitor,
		Gate:    gate,
		Remote:  client,
		Catalog: catalog.NewService(client, loader, gate),
		Recent:  guestorder.NewRecentOrders(store, cfg.Orders.RecentLimit),
		Tracker: guestorder.NewTracker(client, gate,
			guestorder.WithLocation(cfg.Location()),
			guestorder.WithCancelWindow(cfg.Orders.CancelWindow),
		),
		repo: cart.NewRepository(store),
		carts: map[cart.Kind]*cart.Engine{
			cart.KindGeneral: cart.NewEngine(cart.KindGeneral, cart.WithObserver(collector)),
			cart.KindBakery:  cart.NewEngine(cart.KindBakery, cart.WithObserver(collector)),
		},
	}

	a.Checkout = NewSessions(checkout.Deps{
		Creator:   client,
		Tokenizer: payment.NewClientTokens(),
		Recent:    a.Recent,
		Gate:      gate,
		Pricing: checkout.Pricing{
			TaxRateBps:        cfg.Pricing.TaxRateBps,
			DeliveryFee:       money.Cents(cfg.Pricing.DeliveryFeeCents),
			MinDepositPercent: cfg.Pricing.MinDepositPercent,
		},
		Validate: checkout.NewValidator(),
		Observer: collector,
	}, WithSessionTTL(cfg.Orders.CheckoutTTL), WithSessionLimit(cfg.Orders.CheckoutLimit))

	return a
}

// Start rehydrates both carts, installs their persisters and, when
// configured, starts the background re-probe.
func (a *App) Start(ctx context.Context) error {
	if a.started {
		return errors.New("app: already started")
	}
	a.started = true

	for kind, engine := range a.carts {
		engine.Rehydrate(ctx, a.repo)
		a.stops = append(a.stops, engine.Persist(a.repo))
		log.Info().
			Str("cart", string(kind)).
			Int("items", engine.TotalItemCount()).
			Msg("app: cart restored")
	}

	if a.Config.API.ReprobeInterval > 0 && a.Monitor.Configured() {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.cancel = cancel
		go a.Monitor.Watch(watchCtx, a.Config.API.ReprobeInterval)
	}

	return nil
}

// Cart returns the engine for kind.
func (a *App) Cart(kind cart.Kind) (*cart.Engine, error) {
	engine, ok := a.carts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCart, kind)
	}
	return engine, nil
}

// StartCheckout opens a checkout session over the current contents of the
// kind cart.
func (a *App) StartCheckout(kind cart.Kind) (string, *checkout.Session, error) {
	engine, err := a.Cart(kind)
	if err != nil {
		return "", nil, err
	}
	return a.Checkout.Start(engine.Snapshot().Items)
}

func (a *App) Session(id string) (*checkout.Session, error) {
	return a.Checkout.Get(id)
}

// FinishCheckout drops a session that has placed its order.
func (a *App) FinishCheckout(id string, session *checkout.Session) bool {
	return a.Checkout.Finish(id, session)
}

// Close stops background work, detaches persisters and closes storage.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	for _, stop := range a.stops {
		stop()
	}
	a.stops = nil

	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("app: failed to close storage: %w", err)
	}
	return nil
}
