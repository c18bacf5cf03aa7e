package cart

import (
	"fmt"

	"github.com/oyhutmarket/storefront/internal/catalog"
	"github.com/oyhutmarket/storefront/internal/money"
)

// Kind selects one of the two independent carts.
type Kind string

const (
	KindGeneral Kind = "general"
	KindBakery  Kind = "bakery"
)

// StorageKey is the durable key the cart is saved under.
func (k Kind) StorageKey() string {
	if k == KindBakery {
		return "bakeryCart"
	}
	return "cart"
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGeneral, KindBakery:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("cart: unknown cart kind %q", s)
	}
}

type Customization struct {
	Name          string       `json:"name"`
	Value         string       `json:"value"`
	PriceModifier money.Amount `json:"priceModifier"`
}

// Schedule is the requested pickup or delivery slot for a line.
type Schedule struct {
	PickupDate string `json:"pickupDate,omitempty"`
	PickupTime string `json:"pickupTime,omitempty"`
}

// LineItem is one distinct configuration of one product. ID is derived from
// the configuration, so adding the same configuration again merges.
type LineItem struct {
	ID                   string          `json:"id"`
	ProductID            string          `json:"productId"`
	Name                 string          `json:"name"`
	Image                string          `json:"image"`
	Category             string          `json:"category,omitempty"`
	Allergens            []string        `json:"allergens,omitempty"`
	RequiresAdvanceOrder bool            `json:"requiresAdvanceOrder,omitempty"`
	AdvanceOrderTime     int             `json:"advanceOrderTime,omitempty"`
	Quantity             int             `json:"quantity"`
	Size                 string          `json:"size,omitempty"`
	Flavor               string          `json:"flavor,omitempty"`
	Customizations       []Customization `json:"customizations,omitempty"`
	SpecialInstructions  string          `json:"specialInstructions,omitempty"`
	Schedule             Schedule        `json:"schedule"`
	UnitPrice            money.Amount    `json:"unitPrice"`
	TotalPrice           money.Amount    `json:"totalPrice"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity,omitempty"`
	MaximumOrderQuantity int             `json:"maximumOrderQuantity,omitempty"`
}

// Cart is an immutable snapshot of a cart's contents and drawer state.
type Cart struct {
	Kind   Kind       `json:"kind"`
	Items  []LineItem `json:"items"`
	IsOpen bool       `json:"isOpen"`
}

// AddRequest describes a product selection being added to the cart.
type AddRequest struct {
	Product             catalog.Product
	Quantity            int
	Size                string
	Flavor              string
	Customizations      []Customization
	SpecialInstructions string
	Schedule            Schedule
}

func (c Cart) clone() Cart {
	items := make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		item.Customizations = append([]Customization(nil), item.Customizations...)
		item.Allergens = append([]string(nil), item.Allergens...)
		items[i] = item
	}
	c.Items = items
	return c
}

// TotalItemCount is the sum of all line quantities.
func (c Cart) TotalItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// TotalPrice is the sum of all line totals.
func (c Cart) TotalPrice() money.Amount {
	var total money.Amount
	for _, item := range c.Items {
		total += item.TotalPrice
	}
	return total
}

// Find returns the line with the given id.
func (c Cart) Find(lineID string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.ID == lineID {
			return item, true
		}
	}
	return LineItem{}, false
}
