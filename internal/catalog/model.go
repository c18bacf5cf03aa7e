package catalog

import (
	"github.com/oyhutmarket/storefront/internal/money"
)

// OptionType is the input kind of a customization option.
type OptionType string

const (
	OptionSingle   OptionType = "single"
	OptionMultiple OptionType = "multiple"
	OptionText     OptionType = "text"
	OptionNumber   OptionType = "number"
)

type Size struct {
	Name      string       `json:"name"`
	Price     money.Amount `json:"price"`
	Servings  string       `json:"servings,omitempty"`
	IsDefault bool         `json:"isDefault,omitempty"`
}

type Flavor struct {
	Name          string       `json:"name"`
	Available     bool         `json:"available"`
	PriceModifier money.Amount `json:"priceModifier"`
}

type OptionChoice struct {
	Label         string       `json:"label"`
	Value         string       `json:"value"`
	PriceModifier money.Amount `json:"priceModifier"`
}

type CustomizationOption struct {
	Name     string         `json:"name"`
	Type     OptionType     `json:"type"`
	Required bool           `json:"required"`
	Options  []OptionChoice `json:"options,omitempty"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Product is read-only catalog data, identical whether it came from the live
// API or from a bundled snapshot. Grocery products carry Price, bakery
// products carry BasePrice and the customization fields.
type Product struct {
	ID                   string                `json:"_id"`
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	Category             string                `json:"category"`
	Price                money.Amount          `json:"price,omitempty"`
	BasePrice            money.Amount          `json:"basePrice,omitempty"`
	Sizes                []Size                `json:"sizes,omitempty"`
	Flavors              []Flavor              `json:"flavors,omitempty"`
	CustomizationOptions []CustomizationOption `json:"customizationOptions,omitempty"`
	IsCustomizable       bool                  `json:"isCustomizable,omitempty"`
	MinimumOrderQuantity int                   `json:"minimumOrderQuantity,omitempty"`
	MaximumOrderQuantity int                   `json:"maximumOrderQuantity,omitempty"`
	RequiresAdvanceOrder bool                  `json:"requiresAdvanceOrder,omitempty"`
	AdvanceOrderTime     int                   `json:"advanceOrderTime,omitempty"`
	Featured             bool                  `json:"featured,omitempty"`
	Allergens            []string              `json:"allergens,omitempty"`
	Images               []Image               `json:"images,omitempty"`
}

// EffectiveBasePrice is the price before size, flavor and customization
// adjustments.
func (p *Product) EffectiveBasePrice() money.Amount {
	if p.BasePrice != money.Zero {
		return p.BasePrice
	}
	return p.Price
}

// FindSize returns the size with the given name.
func (p *Product) FindSize(name string) (Size, bool) {
	for _, s := range p.Sizes {
		if s.Name == name {
			return s, true
		}
	}
	return Size{}, false
}

// FindFlavor returns the flavor with the given name.
func (p *Product) FindFlavor(name string) (Flavor, bool) {
	for _, f := range p.Flavors {
		if f.Name == name {
			return f, true
		}
	}
	return Flavor{}, false
}

// FindChoice looks up the price-bearing choice for a customization option.
func (p *Product) FindChoice(option, value string) (OptionChoice, bool) {
	for _, o := range p.CustomizationOptions {
		if o.Name != option {
			continue
		}
		for _, c := range o.Options {
			if c.Value == value || c.Label == value {
				return c, true
			}
		}
	}
	return OptionChoice{}, false
}

// PrimaryImage returns the first image URL or a placeholder.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0].URL != "" {
		return p.Images[0].URL
	}
	return PlaceholderImage
}

// PlaceholderImage is used for products without images.
const PlaceholderImage = "https://via.placeholder.com/100"

type Category struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Query carries the filters a catalog read supports.
type Query struct {
	Category string
	Search   string
}

// ProductPage is the single result shape of every product listing, whichever
// path served it.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// OptionValue is one customization selection sent for a price quote.
type OptionValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PriceRequest struct {
	Size    string        `json:"size,omitempty"`
	Flavor  string        `json:"flavor,omitempty"`
	Options []OptionValue `json:"options,omitempty"`
}

type PriceQuote struct {
	Price money.Amount `json:"price"`
}

type Review struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type ReviewResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Offline bool   `json:"offline,omitempty"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Offline bool   `json:"offline,omitempty"`
}
