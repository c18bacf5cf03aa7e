package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oyhutmarket/storefront/internal/storage"
)

var ErrCorruptSnapshot = errors.New("saved cart is corrupt")

type Repository interface {
	Load(ctx context.Context, kind Kind) ([]LineItem, error)
	Save(ctx context.Context, kind Kind, items []LineItem) error
}

type storeRepository struct {
	store storage.Store
}

func NewRepository(store storage.Store) Repository {
	return &storeRepository{store: store}
}

type savedCart struct {
	Items []LineItem `json:"items"`
}

// Load returns nil items and no error when nothing was saved.
func (r *storeRepository) Load(ctx context.Context, kind Kind) ([]LineItem, error) {
	raw, err := r.store.Get(ctx, kind.StorageKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to load %s cart: %w", kind, err)
	}

	var saved savedCart
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("repository: %s cart: %w: %v", kind, ErrCorruptSnapshot, err)
	}
	return saved.Items, nil
}

func (r *storeRepository) Save(ctx context.Context, kind Kind, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	raw, err := json.Marshal(savedCart{Items: items})
	if err != nil {
		return fmt.Errorf("repository: failed to encode %s cart: %w", kind, err)
	}
	if err := r.store.Put(ctx, kind.StorageKey(), raw); err != nil {
		return fmt.Errorf("repository: failed to save %s cart: %w", kind, err)
	}
	return nil
}
