// Package auth validates player credentials and resolves them to identities.
//
// Credentials are HS256 JSON Web Tokens signed with a secret shared with the
// service that issues them. Format and expiry are checked locally before the
// signature; the subject is then resolved through a Directory.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
)

// Identity is an authenticated player. It is immutable for the life of a connection.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Claims is the token body
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// CredentialValidator turns a bearer credential into an identity
type CredentialValidator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}

// Validator checks HS256 tokens against a shared secret
type Validator struct {
	secret    []byte
	directory Directory
	now       func() time.Time
}

// NewValidator creates a validator. A nil directory trusts the token claims.
func NewValidator(secret []byte, directory Directory) (*Validator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if directory == nil {
		directory = ClaimsDirectory{}
	}
	return &Validator{
		secret:    secret,
		directory: directory,
		now:       time.Now,
	}, nil
}

// Validate parses and verifies token and resolves its subject.
func (v *Validator) Validate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Identity{}, gameerr.ErrMissingToken
	}
	if strings.Count(token, ".") != 2 {
		return Identity{}, gameerr.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, gameerr.ErrTokenExpired
		}
		return Identity{}, gameerr.Wrap(gameerr.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Identity{}, gameerr.ErrInvalidToken
	}

	identity, err := v.directory.Lookup(ctx, claims.Subject, claims.Name)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return Identity{}, gameerr.ErrUnknownIdentity
		}
		return Identity{}, fmt.Errorf("directory lookup: %w", err)
	}
	return identity, nil
}

// Issuer mints tokens with the shared secret
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates a token issuer
func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret, now: time.Now}
}

// Issue signs a token for identity that expires after ttl
func (i *Issuer) Issue(identity Identity, ttl time.Duration) (string, error) {
	if identity.ID == "" {
		return "", errors.New("identity id is required")
	}
	now := i.now()
	claims := Claims{
		Name: identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
