package checkout

import (
	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/guestorder"
	"github.com/oyhutmarket/storefront/internal/money"
)

// Pricing holds the order-level charges.
type Pricing struct {
	TaxRateBps        int64
	DeliveryFee       money.Amount
	MinDepositPercent int64
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRateBps:        1010,
		DeliveryFee:       money.Cents(1500),
		MinDepositPercent: 50,
	}
}

type Totals struct {
	Subtotal    money.Amount `json:"subtotal"`
	Tax         money.Amount `json:"tax"`
	DeliveryFee money.Amount `json:"deliveryFee"`
	Total       money.Amount `json:"total"`
}

// ComputeTotals prices an order from its line snapshot.
func (p Pricing) ComputeTotals(items []cart.LineItem, orderType guestorder.OrderType) Totals {
	var subtotal money.Amount
	for _, item := range items {
		line := item.TotalPrice
		if line == money.Zero {
			line = item.UnitPrice.Mul(item.Quantity)
		}
		subtotal += line
	}

	t := Totals{
		Subtotal: subtotal,
		Tax:      subtotal.ApplyRate(p.TaxRateBps),
	}
	if orderType == guestorder.OrderTypeDelivery {
		t.DeliveryFee = p.DeliveryFee
	}
	t.Total = money.Sum(t.Subtotal, t.Tax, t.DeliveryFee)
	return t
}

// MinimumDeposit is the smallest deposit accepted against total.
func (p Pricing) MinimumDeposit(total money.Amount) money.Amount {
	return total.ApplyRate(p.MinDepositPercent * 100)
}
