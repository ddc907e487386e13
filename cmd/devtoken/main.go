// devtoken issues signing keys and bearer tokens for local development.
//
// Production tokens come from the hosted auth backend. Locally, either share
// JWT_SECRET with the server and mint HS256 tokens, or generate an ES256 key,
// serve the public JWKS and point JWKS_URL at it.
//
// Usage:
//
//	go run ./cmd/devtoken keygen --private dev-key.json --jwks dev-jwks.json
//	go run ./cmd/devtoken mint --sub <uuid> --handle alice --role moderator
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/spf13/cobra"

	"Agora/internal/auth"
	"Agora/internal/core/users"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "devtoken",
		Short:        "Development signing keys and bearer tokens",
		SilenceUsage: true,
	}
	root.AddCommand(newKeygenCmd(), newMintCmd())
	return root
}

func newKeygenCmd() *cobra.Command {
	var privatePath, jwksPath, kid string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ES256 keypair as a private JWK and a public JWKS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			private, public, err := generateKeyPair(kid)
			if err != nil {
				return err
			}
			if err := writeJSON(privatePath, private, 0o600, cmd.OutOrStdout()); err != nil {
				return err
			}
			return writeJSON(jwksPath, public, 0o644, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&privatePath, "private", "", "write the private JWK here (default stdout)")
	cmd.Flags().StringVar(&jwksPath, "jwks", "", "write the public JWKS here (default stdout)")
	cmd.Flags().StringVar(&kid, "kid", "agora-dev-key", "key id")
	return cmd
}

// generateKeyPair returns the private key as a JWK and the matching public JWKS
func generateKeyPair(kid string) (jwk.Key, jwk.Set, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	private, err := jwk.FromRaw(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JWK from private key: %w", err)
	}
	for k, v := range map[string]any{
		jwk.KeyIDKey:     kid,
		jwk.AlgorithmKey: auth.AlgorithmES256,
		jwk.KeyUsageKey:  "sig",
	} {
		if err := private.Set(k, v); err != nil {
			return nil, nil, fmt.Errorf("failed to set %s: %w", k, err)
		}
	}

	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		return nil, nil, fmt.Errorf("failed to build JWKS: %w", err)
	}
	return private, set, nil
}

type mintOptions struct {
	secret      string
	keyPath     string
	sub         string
	handle      string
	displayName string
	role        string
	issuer      string
	audience    string
	ttl         time.Duration
}

func newMintCmd() *cobra.Command {
	opts := &mintOptions{}
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a bearer token with JWT_SECRET (HS256) or a private JWK (ES256)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := mint(opts, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.secret, "secret", os.Getenv("JWT_SECRET"), "HS256 secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&opts.keyPath, "key", "", "private JWK file; takes precedence over --secret")
	cmd.Flags().StringVar(&opts.sub, "sub", "", "user id (default: random UUID)")
	cmd.Flags().StringVar(&opts.handle, "handle", "", "user handle")
	cmd.Flags().StringVar(&opts.displayName, "name", "", "display name")
	cmd.Flags().StringVar(&opts.role, "role", string(users.RoleMember), "member, moderator or admin")
	cmd.Flags().StringVar(&opts.issuer, "iss", os.Getenv("JWT_ISSUER"), "issuer claim")
	cmd.Flags().StringVar(&opts.audience, "aud", os.Getenv("JWT_AUDIENCE"), "audience claim")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("handle")
	return cmd
}

func mint(opts *mintOptions, now time.Time) (string, error) {
	sub := opts.sub
	if sub == "" {
		sub = uuid.NewString()
	}
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    opts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(opts.ttl)),
			ID:        uuid.NewString(),
		},
		Handle:      opts.handle,
		DisplayName: opts.displayName,
		Role:        string(users.ParseRole(opts.role)),
	}
	if opts.audience != "" {
		claims.Audience = jwt.ClaimStrings{opts.audience}
	}

	if opts.keyPath != "" {
		data, err := os.ReadFile(opts.keyPath)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		key, err := jwk.ParseKey(data)
		if err != nil {
			return "", fmt.Errorf("failed to parse key: %w", err)
		}
		var raw ecdsa.PrivateKey
		if err := key.Raw(&raw); err != nil {
			return "", fmt.Errorf("key is not an ES256 private key: %w", err)
		}
		token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
		token.Header["kid"] = key.KeyID()
		return token.SignedString(&raw)
	}

	if opts.secret == "" {
		return "", fmt.Errorf("one of --key or --secret (JWT_SECRET) is required")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.secret))
}

func writeJSON(path string, v any, perm os.FileMode, stdout io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	return os.WriteFile(path, data, perm)
}
