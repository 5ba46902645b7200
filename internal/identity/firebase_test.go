package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testProject = "creative-arena-test"

type jwksServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newJWKSServer(t *testing.T, kid string, key *rsa.PublicKey) *jwksServer {
	t.Helper()
	s := &jwksServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": kid,
				"kty": "RSA",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func validClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "https://securetoken.google.com/" + testProject,
		"aud":   testProject,
		"sub":   "uid-123",
		"email": "artist@example.com",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestFirebaseVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	now := time.Now()
	srv := newJWKSServer(t, "kid-1", &key.PublicKey)
	v := NewFirebaseVerifier(testProject, time.Second, WithJWKSURL(srv.URL))

	t.Run("valid token", func(t *testing.T) {
		tok, err := v.Verify(context.Background(), signToken(t, key, "kid-1", validClaims(now)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.UID != "uid-123" || tok.Email != "artist@example.com" {
			t.Fatalf("unexpected token: %+v", tok)
		}
		if tok.ExpiresAt.Unix() != now.Add(time.Hour).Unix() {
			t.Fatalf("unexpected expiry: %v", tok.ExpiresAt)
		}
	})

	tests := []struct {
		name string
		raw  func(t *testing.T) string
	}{
		{"empty", func(t *testing.T) string { return "" }},
		{"garbage", func(t *testing.T) string { return "not.a.jwt" }},
		{"wrong signer", func(t *testing.T) string { return signToken(t, other, "kid-1", validClaims(now)) }},
		{"unknown kid", func(t *testing.T) string { return signToken(t, key, "kid-9", validClaims(now)) }},
		{"expired", func(t *testing.T) string {
			c := validClaims(now)
			c["exp"] = now.Add(-time.Minute).Unix()
			return signToken(t, key, "kid-1", c)
		}},
		{"no expiry", func(t *testing.T) string {
			c := validClaims(now)
			delete(c, "exp")
			return signToken(t, key, "kid-1", c)
		}},
		{"wrong audience", func(t *testing.T) string {
			c := validClaims(now)
			c["aud"] = "someone-else"
			return signToken(t, key, "kid-1", c)
		}},
		{"wrong issuer", func(t *testing.T) string {
			c := validClaims(now)
			c["iss"] = "https://evil.example.com/" + testProject
			return signToken(t, key, "kid-1", c)
		}},
		{"missing email", func(t *testing.T) string {
			c := validClaims(now)
			delete(c, "email")
			return signToken(t, key, "kid-1", c)
		}},
		{"hmac token", func(t *testing.T) string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(now))
			tok.Header["kid"] = "kid-1"
			raw, _ := tok.SignedString([]byte("secret"))
			return raw
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.raw(t))
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestFirebaseVerifier_CachesKeysUntilMaxAge(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := time.Now()
	clock := now
	srv := newJWKSServer(t, "kid-1", &key.PublicKey)
	v := NewFirebaseVerifier(testProject, time.Second,
		WithJWKSURL(srv.URL),
		WithClock(func() time.Time { return clock }),
	)

	raw := signToken(t, key, "kid-1", validClaims(now))
	for i := 0; i < 3; i++ {
		if _, err := v.Verify(context.Background(), raw); err != nil {
			t.Fatalf("verify %d: %v", i, err)
		}
	}
	if got := srv.hits.Load(); got != 1 {
		t.Fatalf("expected one key fetch, got %d", got)
	}

	clock = now.Add(11 * time.Minute)
	if _, err := v.Verify(context.Background(), raw); err != nil {
		t.Fatalf("verify after expiry: %v", err)
	}
	if got := srv.hits.Load(); got != 2 {
		t.Fatalf("expected refetch after max-age, got %d", got)
	}
}

func TestFirebaseVerifier_KeyEndpointDown(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	v := NewFirebaseVerifier(testProject, time.Second, WithJWKSURL(srv.URL))
	_, err = v.Verify(context.Background(), signToken(t, key, "kid-1", validClaims(time.Now())))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestFirebaseVerifier_UnknownKidsShareOneFetch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := time.Now()
	clock := now
	srv := newJWKSServer(t, "kid-1", &key.PublicKey)
	v := NewFirebaseVerifier(testProject, time.Second,
		WithJWKSURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return clock }),
	)

	forged := make([]string, 20)
	for i := range forged {
		forged[i] = signToken(t, key, fmt.Sprintf("forged-%d", i), validClaims(now))
	}

	var wg sync.WaitGroup
	for i, raw := range forged {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("token %d: expected ErrInvalidToken, got %v", i, err)
			}
		}(i, raw)
	}
	wg.Wait()
	if got := srv.hits.Load(); got != 1 {
		t.Fatalf("expected one key fetch for 20 unknown kids, got %d", got)
	}

	if _, err := v.Verify(context.Background(), signToken(t, key, "kid-1", validClaims(now))); err != nil {
		t.Fatalf("valid token after unknown kids: %v", err)
	}
	if got := srv.hits.Load(); got != 1 {
		t.Fatalf("expected cached key to be used, got %d fetches", got)
	}

	clock = now.Add(2 * time.Minute)
	_, _ = v.Verify(context.Background(), signToken(t, key, "rotated", validClaims(now)))
	if got := srv.hits.Load(); got != 2 {
		t.Fatalf("expected a refetch once the interval passed, got %d", got)
	}
}

func TestFirebaseVerifier_FailedFetchIsNotRetriedImmediately(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	now := time.Now()
	clock := now
	v := NewFirebaseVerifier(testProject, time.Second,
		WithJWKSURL(srv.URL),
		WithClock(func() time.Time { return clock }),
	)
	raw := signToken(t, key, "kid-1", validClaims(now))
	for i := 0; i < 5; i++ {
		if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("verify %d: expected ErrInvalidToken, got %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one fetch while the endpoint is down, got %d", got)
	}

	clock = now.Add(time.Minute)
	_, _ = v.Verify(context.Background(), raw)
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected a retry after the interval, got %d", got)
	}
}

func TestRSAKeyRejectsBadExponent(t *testing.T) {
	n := base64.RawURLEncoding.EncodeToString(big.NewInt(0).Lsh(big.NewInt(1), 2047).Bytes())
	tests := []struct {
		name    string
		e       []byte
		wantErr bool
	}{
		{"standard", big.NewInt(65537).Bytes(), false},
		{"one", []byte{1}, true},
		{"empty", nil, true},
		{"too large", big.NewInt(0).Lsh(big.NewInt(1), 80).Bytes(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rsaKey(n, base64.RawURLEncoding.EncodeToString(tt.e))
			if (err != nil) != tt.wantErr {
				t.Fatalf("rsaKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxAge(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"public, max-age=19302, must-revalidate", 19302 * time.Second},
		{"no-cache", defaultKeyTTL},
		{"", defaultKeyTTL},
		{"max-age=0", defaultKeyTTL},
	}
	for _, tt := range tests {
		if got := maxAge(tt.header); got != tt.want {
			t.Errorf("maxAge(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
