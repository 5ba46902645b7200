// Package payment opens hosted checkout sessions with the payment processor
// and reads them back once the payer returns.
package payment

import (
	"context"
	"errors"
	"math"
)

var ErrSessionNotFound = errors.New("checkout session not found")

const (
	MetadataContestID = "contestId"
	MetadataEmail     = "email"
)

type CheckoutRequest struct {
	ContestID   string
	ContestName string
	Email       string
	Price       float64
}

type CheckoutSession struct {
	ID  string
	URL string
}

// SessionResult is the provider's view of a checkout session after the
// payer has been redirected back.
type SessionResult struct {
	SessionID     string
	TransactionID string
	ContestID     string
	Email         string
	AmountMinor   int64
	Currency      string
	Paid          bool
}

func (r *SessionResult) Amount() float64 {
	return float64(r.AmountMinor) / 100
}

type Provider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionResult, error)
}

// MinorUnits converts a decimal price into integer cents.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
