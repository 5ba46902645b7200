package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxCacheTTL = 5 * time.Minute

// TokenCache stores verified tokens keyed by a digest of the raw token.
type TokenCache interface {
	Get(ctx context.Context, key string) (*Token, bool, error)
	Set(ctx context.Context, key string, token *Token, ttl time.Duration) error
}

// CachedVerifier consults the cache before delegating to the wrapped verifier.
// Cache errors degrade to a direct verification.
type CachedVerifier struct {
	next  Verifier
	cache TokenCache
	now   func() time.Time
}

func NewCachedVerifier(next Verifier, cache TokenCache) *CachedVerifier {
	return &CachedVerifier{next: next, cache: cache, now: time.Now}
}

func (v *CachedVerifier) Verify(ctx context.Context, rawToken string) (*Token, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}
	key := cacheKey(rawToken)

	tok, ok, err := v.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "token cache read failed", "error", err)
	}
	if ok && v.now().Before(tok.ExpiresAt) {
		return tok, nil
	}

	tok, err = v.next.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	ttl := tok.ExpiresAt.Sub(v.now())
	if ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}
	if ttl > 0 {
		if err := v.cache.Set(ctx, key, tok, ttl); err != nil {
			slog.WarnContext(ctx, "token cache write failed", "error", err)
		}
	}
	return tok, nil
}

func cacheKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

type RedisTokenCache struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client, prefix: "idtoken:"}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (*Token, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, false, fmt.Errorf("decode cached token: %w", err)
	}
	return &tok, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key string, token *Token, ttl time.Duration) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}
