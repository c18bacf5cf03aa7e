package cart

import (
	"errors"
	"fmt"

	"github.com/oyhutmarket/storefront/internal/money"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrBelowMinimum    = errors.New("quantity is below the product minimum")
	ErrAboveMaximum    = errors.New("quantity exceeds the product maximum")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Action is a cart mutation applied by Reduce.
type Action interface {
	action() string
}

type AddItem struct{ Request AddRequest }

type UpdateQuantity struct {
	LineID   string
	Quantity int
}

type RemoveItem struct{ LineID string }

type Clear struct{}

type SetVisibility struct{ Open bool }

func (AddItem) action() string        { return "add_item" }
func (UpdateQuantity) action() string { return "update_quantity" }
func (RemoveItem) action() string     { return "remove_item" }
func (Clear) action() string          { return "clear" }
func (SetVisibility) action() string  { return "set_visibility" }

// Name returns the action's metric and log name.
func Name(a Action) string { return a.action() }

// changesContents reports whether a changes the items, as opposed to drawer
// state only.
func changesContents(a Action) bool {
	_, visibility := a.(SetVisibility)
	return !visibility
}

// Reduce applies a to c and returns the next cart. c is never modified. On
// error the returned cart is c unchanged.
func Reduce(c Cart, a Action) (Cart, error) {
	next := c.clone()

	switch a := a.(type) {
	case AddItem:
		items, err := addItem(next.Items, a.Request)
		if err != nil {
			return c, err
		}
		next.Items = items
	case UpdateQuantity:
		items, err := updateQuantity(next.Items, a.LineID, a.Quantity)
		if err != nil {
			return c, err
		}
		next.Items = items
	case RemoveItem:
		next.Items = removeItem(next.Items, a.LineID)
	case Clear:
		next.Items = []LineItem{}
	case SetVisibility:
		next.IsOpen = a.Open
	default:
		return c, fmt.Errorf("cart: unknown action %T", a)
	}

	return next, nil
}

func addItem(items []LineItem, req AddRequest) ([]LineItem, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p := req.Product
	customizations := ResolveCustomizations(&p, req.Customizations)
	id := LineKey(p.ID, req.Size, req.Flavor, customizations)

	for i := range items {
		if items[i].ID != id {
			continue
		}
		q := items[i].Quantity + req.Quantity
		if err := checkBounds(q, items[i].MinimumOrderQuantity, items[i].MaximumOrderQuantity); err != nil {
			return nil, err
		}
		items[i].Quantity = q
		items[i].TotalPrice = items[i].UnitPrice.Mul(q)
		return items, nil
	}

	if err := checkBounds(req.Quantity, p.MinimumOrderQuantity, p.MaximumOrderQuantity); err != nil {
		return nil, err
	}

	unit := UnitPrice(&p, req.Size, req.Flavor, customizations)
	return append(items, LineItem{
		ID:                   id,
		ProductID:            p.ID,
		Name:                 p.Name,
		Image:                p.PrimaryImage(),
		Category:             p.Category,
		Allergens:            append([]string(nil), p.Allergens...),
		RequiresAdvanceOrder: p.RequiresAdvanceOrder,
		AdvanceOrderTime:     p.AdvanceOrderTime,
		Quantity:             req.Quantity,
		Size:                 req.Size,
		Flavor:               req.Flavor,
		Customizations:       customizations,
		SpecialInstructions:  req.SpecialInstructions,
		Schedule:             req.Schedule,
		UnitPrice:            unit,
		TotalPrice:           unit.Mul(req.Quantity),
		MinimumOrderQuantity: p.MinimumOrderQuantity,
		MaximumOrderQuantity: p.MaximumOrderQuantity,
	}), nil
}

// updateQuantity sets a line's quantity. Zero or less removes the line.
func updateQuantity(items []LineItem, lineID string, q int) ([]LineItem, error) {
	for i := range items {
		if items[i].ID != lineID {
			continue
		}
		if q <= 0 {
			return removeItem(items, lineID), nil
		}
		if err := checkBounds(q, items[i].MinimumOrderQuantity, items[i].MaximumOrderQuantity); err != nil {
			return nil, err
		}
		items[i].Quantity = q
		items[i].TotalPrice = items[i].UnitPrice.Mul(q)
		return items, nil
	}
	return nil, ErrLineNotFound
}

func removeItem(items []LineItem, lineID string) []LineItem {
	out := items[:0]
	for _, item := range items {
		if item.ID != lineID {
			out = append(out, item)
		}
	}
	return out
}

// checkBounds enforces product quantity limits. Zero means no limit.
func checkBounds(q, minimum, maximum int) error {
	if minimum > 0 && q < minimum {
		return fmt.Errorf("%w: minimum is %d", ErrBelowMinimum, minimum)
	}
	if maximum > 0 && q > maximum {
		return fmt.Errorf("%w: maximum is %d", ErrAboveMaximum, maximum)
	}
	return nil
}

// sanitize drops lines that cannot have come from Reduce and recomputes
// line totals from unit prices.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.ProductID == "" || item.Quantity <= 0 || item.UnitPrice < money.Zero {
			continue
		}
		item.TotalPrice = item.UnitPrice.Mul(item.Quantity)
		out = append(out, item)
	}
	return out
}
