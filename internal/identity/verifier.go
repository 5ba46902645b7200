// Package identity verifies bearer ID tokens issued by Firebase Authentication.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// audience or issuer, expiry, missing claims or an unreachable key endpoint.
var ErrInvalidToken = errors.New("invalid identity token")

type Token struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Token, error)
}
