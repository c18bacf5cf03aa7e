package catalog

import "github.com/oyhutmarket/storefront/internal/money"

// UnitPrice is the price of one unit for a selection: the base price,
// replaced by the chosen size's price when that size exists, plus the
// chosen flavor's modifier, plus the customization modifiers already summed
// by the caller.
func (p *Product) UnitPrice(size, flavor string, customizations money.Amount) money.Amount {
	price := p.EffectiveBasePrice()
	if size != "" {
		if s, ok := p.FindSize(size); ok {
			price = s.Price
		}
	}
	if flavor != "" {
		if f, ok := p.FindFlavor(flavor); ok {
			price += f.PriceModifier
		}
	}
	return price + customizations
}

// OptionModifier returns the price modifier the product defines for a
// customization selection, or zero for free-form and unknown values.
func (p *Product) OptionModifier(option, value string) money.Amount {
	if c, ok := p.FindChoice(option, value); ok {
		return c.PriceModifier
	}
	return money.Zero
}

// Quote prices a PriceRequest locally.
func (p *Product) Quote(req PriceRequest) PriceQuote {
	var extras money.Amount
	for _, o := range req.Options {
		extras += p.OptionModifier(o.Name, o.Value)
	}
	return PriceQuote{Price: p.UnitPrice(req.Size, req.Flavor, extras)}
}
