package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

type StripeProvider struct {
	client     *session.Client
	currency   string
	successURL string
	cancelURL  string
}

func NewStripeProvider(secretKey, currency, clientURL string, timeout time.Duration) *StripeProvider {
	httpClient := &http.Client{Timeout: timeout}
	return &StripeProvider{
		client: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{HTTPClient: httpClient, MaxNetworkRetries: stripe.Int64(0)}),
			Key: secretKey,
		},
		currency:   currency,
		successURL: clientURL + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  clientURL + "/dashboard/payment-cancelled",
	}
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	s, err := p.client.New(p.checkoutParams(ctx, req))
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) checkoutParams(ctx context.Context, req CheckoutRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.currency),
				UnitAmount: stripe.Int64(MinorUnits(req.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ContestName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		CustomerEmail: stripe.String(req.Email),
		SuccessURL:    stripe.String(p.successURL),
		CancelURL:     stripe.String(p.cancelURL),
	}
	params.AddMetadata(MetadataContestID, req.ContestID)
	params.AddMetadata(MetadataEmail, req.Email)
	return params
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("payment_intent")

	s, err := p.client.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return sessionResult(s), nil
}

func sessionResult(s *stripe.CheckoutSession) *SessionResult {
	res := &SessionResult{
		SessionID:     s.ID,
		TransactionID: s.ID,
		AmountMinor:   s.AmountTotal,
		Currency:      string(s.Currency),
		Paid:          s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		res.TransactionID = s.PaymentIntent.ID
	}
	if s.Metadata != nil {
		res.ContestID = s.Metadata[MetadataContestID]
		res.Email = s.Metadata[MetadataEmail]
	}
	return res
}
