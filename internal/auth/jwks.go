package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
)

// JWKSFetcher resolves signing keys from the backend's JWKS endpoint.
// Keys are cached and refreshed in the background; an unknown kid forces one refresh
// so key rotation is picked up without waiting for the interval.
type JWKSFetcher struct {
	cache  *jwk.Cache
	logger *zap.Logger
	url    string
}

// NewJWKSFetcher registers url with a refreshing cache. The cache stops refreshing when ctx is done.
func NewJWKSFetcher(ctx context.Context, url string, refresh time.Duration, logger *zap.Logger) (*JWKSFetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if refresh <= 0 {
		refresh = time.Hour
	}

	cache := jwk.NewCache(ctx)
	err := cache.Register(url,
		jwk.WithMinRefreshInterval(refresh),
		jwk.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register JWKS url: %w", err)
	}

	return &JWKSFetcher{cache: cache, url: url, logger: logger.Named("jwks")}, nil
}

// FetchPublicKey implements KeyFetcher
func (f *JWKSFetcher) FetchPublicKey(ctx context.Context, kid string) (any, error) {
	set, err := f.cache.Get(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		f.logger.Info("unknown key id, refreshing JWKS", zap.String("kid", kid))
		set, err = f.cache.Refresh(ctx, f.url)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}
		if key, ok = set.LookupKeyID(kid); !ok {
			return nil, fmt.Errorf("key %q not found in JWKS", kid)
		}
	}
	return rawPublicKey(key)
}

// StaticKeySet serves keys from a fixed set. Used for pinned keys and in tests.
type StaticKeySet struct {
	set jwk.Set
}

// NewStaticKeySet wraps an already parsed set
func NewStaticKeySet(set jwk.Set) *StaticKeySet {
	return &StaticKeySet{set: set}
}

// ParseStaticKeySet parses a JWKS document
func ParseStaticKeySet(data []byte) (*StaticKeySet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return &StaticKeySet{set: set}, nil
}

// FetchPublicKey implements KeyFetcher
func (s *StaticKeySet) FetchPublicKey(_ context.Context, kid string) (any, error) {
	key, ok := s.set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}
	return rawPublicKey(key)
}

// rawPublicKey converts a JWK into the crypto key golang-jwt expects
func rawPublicKey(key jwk.Key) (any, error) {
	pub, err := key.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	var raw any
	if err := pub.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to convert JWK: %w", err)
	}
	return raw, nil
}
