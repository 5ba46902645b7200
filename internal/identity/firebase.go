package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	FirebaseJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	defaultKeyTTL        = time.Hour

	// minRefreshInterval bounds how often an unknown kid or a failed fetch
	// may hit the key endpoint.
	minRefreshInterval = time.Minute
)

type firebaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type jwksDocument struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Alg string `json:"alg"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// FirebaseVerifier checks RS256 ID tokens against Google's published signing
// keys. Keys are cached until the endpoint's Cache-Control max-age elapses.
type FirebaseVerifier struct {
	projectID string
	jwksURL   string
	client    *http.Client
	now       func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time

	// refreshMu serializes fetches so concurrent misses share one request.
	refreshMu   sync.Mutex
	lastAttempt time.Time
	lastErr     error
}

type FirebaseOption func(*FirebaseVerifier)

func WithJWKSURL(url string) FirebaseOption {
	return func(v *FirebaseVerifier) { v.jwksURL = url }
}

func WithHTTPClient(client *http.Client) FirebaseOption {
	return func(v *FirebaseVerifier) { v.client = client }
}

func WithClock(now func() time.Time) FirebaseOption {
	return func(v *FirebaseVerifier) { v.now = now }
}

func NewFirebaseVerifier(projectID string, timeout time.Duration, opts ...FirebaseOption) *FirebaseVerifier {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	v := &FirebaseVerifier{
		projectID: projectID,
		jwksURL:   FirebaseJWKSURL,
		client:    &http.Client{Timeout: timeout},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Token, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	claims := &firebaseClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrInvalidToken)
	}

	return &Token{
		UID:       claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}

	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	// A caller ahead of us may have refreshed while we waited.
	if key, ok := v.cachedKey(kid); ok {
		return key, nil
	}
	if !v.shouldRefresh() {
		if v.lastErr != nil {
			return nil, v.lastErr
		}
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}

	v.lastAttempt = v.now()
	v.lastErr = v.refresh(ctx)
	if v.lastErr != nil {
		return nil, v.lastErr
	}

	key, ok := v.cachedKey(kid)
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

func (v *FirebaseVerifier) cachedKey(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok := v.keys[kid]
	return key, ok && v.now().Before(v.expiresAt)
}

// shouldRefresh must be called with refreshMu held. Expired keys are
// refetched right away unless the previous attempt failed; anything else
// waits out minRefreshInterval.
func (v *FirebaseVerifier) shouldRefresh() bool {
	if v.lastAttempt.IsZero() || v.now().Sub(v.lastAttempt) >= minRefreshInterval {
		return true
	}
	v.mu.RLock()
	expired := !v.now().Before(v.expiresAt)
	v.mu.RUnlock()
	return expired && v.lastErr == nil
}

func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing keys: status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode signing keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKey(k.N, k.E)
		if err != nil {
			return fmt.Errorf("signing key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.expiresAt = v.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()
	return nil
}

func rsaKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() <= 1 || exp.Int64() > math.MaxInt32 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(exp.Int64()),
	}, nil
}

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

func maxAge(cacheControl string) time.Duration {
	m := maxAgePattern.FindStringSubmatch(cacheControl)
	if m == nil {
		return defaultKeyTTL
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil || secs <= 0 {
		return defaultKeyTTL
	}
	return time.Duration(secs) * time.Second
}
