package cart

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/money"
)

// Listener is notified after every successful mutation with the new cart.
// Listeners run while the engine is locked and must not call back into it.
type Listener func(ctx context.Context, c Cart, a Action)

// Observer receives mutation outcomes for metrics.
type Observer interface {
	CartMutated(kind Kind, action string, err error)
}

type EngineOption func(*Engine)

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// Engine owns one cart and serializes mutations on it.
type Engine struct {
	kind      Kind
	mu        sync.Mutex
	cart      Cart
	listeners map[int]Listener
	nextID    int
	observer  Observer
}

func NewEngine(kind Kind, opts ...EngineOption) *Engine {
	e := &Engine{
		kind:      kind,
		cart:      Cart{Kind: kind, Items: []LineItem{}},
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Kind() Kind {
	return e.kind
}

// Dispatch applies a and notifies listeners when it succeeds.
func (e *Engine) Dispatch(ctx context.Context, a Action) (Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(ctx, a)
}

func (e *Engine) apply(ctx context.Context, a Action) (Cart, error) {
	next, err := Reduce(e.cart, a)
	if e.observer != nil {
		e.observer.CartMutated(e.kind, Name(a), err)
	}
	if err != nil {
		return e.cart.clone(), err
	}

	e.cart = next
	for _, l := range e.listeners {
		l(ctx, next.clone(), a)
	}
	return next.clone(), nil
}

func (e *Engine) AddItem(ctx context.Context, req AddRequest) (Cart, error) {
	return e.Dispatch(ctx, AddItem{Request: req})
}

func (e *Engine) UpdateQuantity(ctx context.Context, lineID string, q int) (Cart, error) {
	return e.Dispatch(ctx, UpdateQuantity{LineID: lineID, Quantity: q})
}

func (e *Engine) RemoveItem(ctx context.Context, lineID string) (Cart, error) {
	return e.Dispatch(ctx, RemoveItem{LineID: lineID})
}

func (e *Engine) Clear(ctx context.Context) (Cart, error) {
	return e.Dispatch(ctx, Clear{})
}

func (e *Engine) SetVisibility(ctx context.Context, open bool) Cart {
	c, _ := e.Dispatch(ctx, SetVisibility{Open: open})
	return c
}

func (e *Engine) Toggle(ctx context.Context) Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, _ := e.apply(ctx, SetVisibility{Open: !e.cart.IsOpen})
	return c
}

// Snapshot returns a copy of the current cart.
func (e *Engine) Snapshot() Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.clone()
}

func (e *Engine) TotalItemCount() int {
	return e.Snapshot().TotalItemCount()
}

func (e *Engine) TotalPrice() money.Amount {
	return e.Snapshot().TotalPrice()
}

// Subscribe registers l and returns a function that removes it.
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners[id] = l

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Rehydrate replaces the contents with the persisted snapshot. Missing or
// unreadable state leaves an empty cart. Listeners are not notified.
func (e *Engine) Rehydrate(ctx context.Context, repo Repository) {
	items, err := repo.Load(ctx, e.Kind())
	if err != nil {
		log.Warn().Err(err).Str("cart", string(e.Kind())).Msg("cart: discarding unreadable saved cart")
		items = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cart.Items = sanitize(items)
}

// Persist saves the items through repo after every content change.
// Visibility changes are not persisted. Save failures are logged and the
// in-memory cart stays authoritative.
func (e *Engine) Persist(repo Repository) (unsubscribe func()) {
	return e.Subscribe(func(ctx context.Context, c Cart, a Action) {
		if !changesContents(a) {
			return
		}
		if err := repo.Save(context.WithoutCancel(ctx), c.Kind, c.Items); err != nil {
			log.Error().Err(err).Str("cart", string(c.Kind)).Str("action", Name(a)).Msg("cart: failed to persist cart")
		}
	})
}
