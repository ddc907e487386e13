// Package auth verifies bearer tokens issued by the hosted auth backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm constants for JWT signing methods
const (
	AlgorithmHS256 = "HS256"
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
)

var (
	// ErrInvalidToken covers every verification failure; the cause is wrapped
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoVerificationKey means neither a shared secret nor a JWKS is configured
	ErrNoVerificationKey = errors.New("no token verification key configured")
)

// Claims represents the JWT claims the backend issues
type Claims struct {
	jwt.RegisteredClaims
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// KeyFetcher resolves the public key for an asymmetric token by key id.
// Returns any to support both RSA and ECDSA keys.
type KeyFetcher interface {
	FetchPublicKey(ctx context.Context, kid string) (any, error)
}

// Verifier checks a bearer token and returns its claims
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// TokenVerifier verifies backend tokens.
//
// Tokens carrying a kid header are verified against the KeyFetcher (RS256/ES256).
// Tokens without a kid are only accepted as HS256 with the shared secret.
// The algorithm is chosen from the key material, never from the alg header alone.
type TokenVerifier struct {
	keys     KeyFetcher
	now      func() time.Time
	issuer   string
	audience string
	secret   []byte
	leeway   time.Duration
}

// Option configures a TokenVerifier
type Option func(*TokenVerifier)

// WithSecret enables HS256 verification with a shared secret
func WithSecret(secret string) Option {
	return func(v *TokenVerifier) {
		if secret != "" {
			v.secret = []byte(secret)
		}
	}
}

// WithKeyFetcher enables asymmetric verification
func WithKeyFetcher(keys KeyFetcher) Option {
	return func(v *TokenVerifier) { v.keys = keys }
}

// WithIssuer requires a matching iss claim
func WithIssuer(issuer string) Option {
	return func(v *TokenVerifier) { v.issuer = issuer }
}

// WithAudience requires aud to contain the value
func WithAudience(aud string) Option {
	return func(v *TokenVerifier) { v.audience = aud }
}

// NewTokenVerifier builds a verifier. At least one of WithSecret or WithKeyFetcher is required.
func NewTokenVerifier(opts ...Option) (*TokenVerifier, error) {
	v := &TokenVerifier{now: time.Now, leeway: 30 * time.Second}
	for _, opt := range opts {
		opt(v)
	}
	if len(v.secret) == 0 && v.keys == nil {
		return nil, ErrNoVerificationKey
	}
	return v, nil
}

// stripBearerPrefix removes the "Bearer " prefix from a token string
func stripBearerPrefix(tokenString string) string {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	return strings.TrimSpace(tokenString)
}

// Verify checks signature, expiry and the configured issuer/audience
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = stripBearerPrefix(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{AlgorithmHS256, AlgorithmRS256, AlgorithmES256}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return v.keyFor(ctx, token)
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing 'sub' claim", ErrInvalidToken)
	}
	return claims, nil
}

// keyFor picks the verification key. A token with a kid MUST be asymmetric;
// this blocks re-signing a token with HS256 using a public key as the secret.
func (v *TokenVerifier) keyFor(ctx context.Context, token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)

	if kid != "" {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		default:
			return nil, fmt.Errorf("tokens with kid must use asymmetric signing, got %v", token.Header["alg"])
		}
		if v.keys == nil {
			return nil, fmt.Errorf("asymmetric token but no JWKS configured")
		}
		key, err := v.keys.FetchPublicKey(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch public key: %w", err)
		}
		return key, nil
	}

	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("asymmetric token without kid")
	}
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("HS256 token but no shared secret configured")
	}
	return v.secret, nil
}
