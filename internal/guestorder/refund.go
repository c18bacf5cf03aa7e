package guestorder

import (
	"time"

	"github.com/oyhutmarket/storefront/internal/money"
)

// EstimateRefund applies the published cancellation policy: a full refund
// more than 48 hours before the scheduled time, half between 24 and 48
// hours, nothing after that. The backend computes the real amount; this is
// for display only.
func EstimateRefund(o *Order, now time.Time, loc *time.Location) money.Amount {
	at, err := o.ScheduledAt(loc)
	if err != nil {
		return money.Zero
	}

	var paid money.Amount
	switch o.PaymentInfo.Method {
	case PaymentOnline:
		paid = o.Total
	case PaymentDeposit:
		paid = o.PaymentInfo.DepositAmount
	default:
		return money.Zero
	}

	until := at.Sub(now)
	switch {
	case until > 48*time.Hour:
		return paid
	case until > 24*time.Hour:
		return paid.ApplyRate(5000)
	default:
		return money.Zero
	}
}
