// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
)

type CheckoutLineItem struct {
	Name       string
	Quantity   int64
	UnitAmount int64
	ProductID  string
	Slug       string
}

type CheckoutSessionRequest struct {
	Currency   string
	LineItems  []CheckoutLineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type HostedCheckoutSession struct {
	ID  string
	URL string
}

// CheckoutGateway creates hosted payment sessions with an external provider.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*HostedCheckoutSession, error)
}

type StripeGateway struct {
	client *session.Client
}

var _ CheckoutGateway = (*StripeGateway)(nil)

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		client: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*HostedCheckoutSession, error) {
	currency := strings.ToLower(req.Currency)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Metadata: map[string]string{
						"product_id": item.ProductID,
						"slug":       item.Slug,
					},
				},
			},
		})
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := g.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &HostedCheckoutSession{
		ID:  cs.ID,
		URL: cs.URL,
	}, nil
}
