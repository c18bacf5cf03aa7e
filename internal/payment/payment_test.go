package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyhutmarket/storefront/internal/payment"
)

func TestClientTokens_Tokenize(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    string
		wantErr error
	}{
		{name: "valid", source: "pm_1NqYx2Abc", want: "pm_1NqYx2Abc"},
		{name: "trimmed", source: "  pm_card_visa ", want: "pm_card_visa"},
		{name: "empty", source: "", wantErr: payment.ErrNotReady},
		{name: "raw_card_number", source: "4242424242424242", wantErr: payment.ErrInvalidToken},
		{name: "too_short", source: "pm_x", wantErr: payment.ErrInvalidToken},
	}

	tok := payment.NewClientTokens()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tok.Tokenize(context.Background(), tt.source, payment.BillingDetails{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
