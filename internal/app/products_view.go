package app

import (
	"context"
	"errors"
	"sync"

	"github.com/oyhutmarket/storefront/internal/availability"
	"github.com/oyhutmarket/storefront/internal/catalog"
)

var ErrNotMounted = errors.New("view is not mounted")

// BrowsingMode is the passive indicator shown next to a listing.
type BrowsingMode string

const (
	ModeChecking BrowsingMode = "checking"
	ModeLive     BrowsingMode = "live"
	ModeStatic   BrowsingMode = "static"
)

// Checker is the part of the availability monitor a view needs.
type Checker interface {
	Check(ctx context.Context) bool
	State() availability.State
}

type lister func(ctx context.Context, q catalog.Query) (catalog.ProductPage, error)

// ProductsView keeps one product listing in sync with its query parameters.
// Loads are ordered: a result that arrives after a newer load started is
// dropped.
type ProductsView struct {
	list    lister
	checker Checker

	mu      sync.RWMutex
	mounted bool
	seq     uint64
	query   catalog.Query
	page    catalog.ProductPage
	loading bool
}

// NewProductsView lists the grocery catalog.
func NewProductsView(svc catalog.Service, checker Checker) *ProductsView {
	return &ProductsView{list: svc.Products, checker: checker, page: catalog.EmptyPage()}
}

// NewBakeryView lists the bakery catalog.
func NewBakeryView(svc catalog.Service, checker Checker) *ProductsView {
	return &ProductsView{list: svc.BakeryProducts, checker: checker, page: catalog.EmptyPage()}
}

// OnMount resolves backend availability and loads the first page for q.
func (v *ProductsView) OnMount(ctx context.Context, q catalog.Query) error {
	v.checker.Check(ctx)

	v.mu.Lock()
	v.mounted = true
	v.mu.Unlock()

	return v.load(ctx, q)
}

// OnParamsChanged reloads the listing when q differs from the current
// query.
func (v *ProductsView) OnParamsChanged(ctx context.Context, q catalog.Query) error {
	v.mu.RLock()
	mounted, same := v.mounted, v.query == q
	v.mu.RUnlock()

	if !mounted {
		return ErrNotMounted
	}
	if same {
		return nil
	}
	return v.load(ctx, q)
}

// OnUnmount drops any load still in flight.
func (v *ProductsView) OnUnmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
	v.seq++
	v.loading = false
}

func (v *ProductsView) load(ctx context.Context, q catalog.Query) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.query = q
	v.loading = true
	v.mu.Unlock()

	page, err := v.list(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		return nil
	}
	v.loading = false
	if err != nil {
		return err
	}
	v.page = page
	return nil
}

func (v *ProductsView) Page() catalog.ProductPage {
	v.mu.RLock()
	defer v.mu.RUnlock()
	page := v.page
	page.Products = append([]catalog.Product(nil), v.page.Products...)
	return page
}

func (v *ProductsView) Query() catalog.Query {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}

func (v *ProductsView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// BrowsingMode reports whether listings come from the live API or from the
// bundled catalog.
func (v *ProductsView) BrowsingMode() BrowsingMode {
	switch v.checker.State() {
	case availability.StateAvailable:
		return ModeLive
	case availability.StateUnavailable:
		return ModeStatic
	default:
		return ModeChecking
	}
}
