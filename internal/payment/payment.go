// Package payment abstracts the card provider. Card data never reaches
// this process: the client creates a payment method with the provider and
// hands over its token.
package payment

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNotReady     = errors.New("payment: no card details received")
	ErrInvalidToken = errors.New("payment: malformed payment method id")
)

type BillingDetails struct {
	Name  string
	Email string
	Phone string
}

// Tokenizer turns a client-side card source into a payment method id the
// order backend can charge.
type Tokenizer interface {
	Tokenize(ctx context.Context, source string, billing BillingDetails) (string, error)
}

var paymentMethodID = regexp.MustCompile(`^pm_[A-Za-z0-9_]{4,}$`)

// ClientTokens accepts payment methods created by the provider's browser
// SDK and checks only their shape.
type ClientTokens struct{}

func NewClientTokens() *ClientTokens {
	return &ClientTokens{}
}

func (ClientTokens) Tokenize(ctx context.Context, source string, _ BillingDetails) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return "", ErrNotReady
	}
	if !paymentMethodID.MatchString(source) {
		return "", ErrInvalidToken
	}
	return source, nil
}
