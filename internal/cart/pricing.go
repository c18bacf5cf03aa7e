package cart

import (
	"github.com/oyhutmarket/storefront/internal/catalog"
	"github.com/oyhutmarket/storefront/internal/money"
)

// ResolveCustomizations fills each selection's price modifier from the
// product's option list. Selections the product does not price (free text,
// unknown values) keep the modifier the caller supplied.
func ResolveCustomizations(p *catalog.Product, customizations []Customization) []Customization {
	out := make([]Customization, len(customizations))
	for i, c := range customizations {
		if choice, ok := p.FindChoice(c.Name, c.Value); ok {
			c.PriceModifier = choice.PriceModifier
		}
		out[i] = c
	}
	return out
}

// UnitPrice prices one unit of a configured product.
func UnitPrice(p *catalog.Product, size, flavor string, customizations []Customization) money.Amount {
	var extras money.Amount
	for _, c := range customizations {
		extras += c.PriceModifier
	}
	return p.UnitPrice(size, flavor, extras)
}
