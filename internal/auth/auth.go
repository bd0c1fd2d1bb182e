// Package auth sources the API bearer token from local credential storage.
// Tokens are issued and verified by the server; the client only reads their
// claims to show who is logged in and to skip requests with an expired token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/nutrify/internal/store"
)

var (
	// ErrNotLoggedIn is returned when no token is stored.
	ErrNotLoggedIn = errors.New("not logged in (run `nutrify login`)")

	// ErrTokenExpired is returned when the stored token's exp is in the past.
	ErrTokenExpired = errors.New("session expired (run `nutrify login`)")
)

// Claims are the token fields the client cares about.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// User returns the user id, preferring user_id over sub.
func (c *Claims) User() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Expiry returns the token expiry, or the zero time if it has none.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ParseClaims decodes a token's claims without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &c, nil
}

// Provider implements api.CredentialProvider on top of a CredentialRepo.
type Provider struct {
	repo store.CredentialRepo
	now  func() time.Time
}

// NewProvider creates a Provider reading from repo.
func NewProvider(repo store.CredentialRepo) *Provider {
	return &Provider{repo: repo, now: time.Now}
}

// Token returns the stored bearer token. Opaque (non-JWT) tokens are passed
// through unchecked.
func (p *Provider) Token(ctx context.Context) (string, error) {
	token, err := p.load(ctx)
	if err != nil {
		return "", err
	}
	if c, err := ParseClaims(token); err == nil {
		if exp := c.Expiry(); !exp.IsZero() && !p.now().Before(exp) {
			return "", ErrTokenExpired
		}
	}
	return token, nil
}

// Claims returns the claims of the stored token.
func (p *Provider) Claims(ctx context.Context) (*Claims, error) {
	token, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return ParseClaims(token)
}

func (p *Provider) load(ctx context.Context) (string, error) {
	token, err := p.repo.Load(ctx)
	if errors.Is(err, store.ErrNoCredentials) {
		return "", ErrNotLoggedIn
	}
	return token, err
}

// LoginClient exchanges credentials for a token.
type LoginClient interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Login authenticates against the API and stores the returned token.
func Login(ctx context.Context, client LoginClient, repo store.CredentialRepo, email, password string) (*Claims, error) {
	token, err := client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return SaveToken(ctx, repo, token)
}

// SaveToken stores a token obtained out of band. JWTs that are already
// expired are rejected; opaque tokens are stored as-is.
func SaveToken(ctx context.Context, repo store.CredentialRepo, token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims, err := ParseClaims(token)
	if err == nil {
		if exp := claims.Expiry(); !exp.IsZero() && !time.Now().Before(exp) {
			return nil, ErrTokenExpired
		}
	} else {
		claims = &Claims{}
	}

	if err := repo.Save(ctx, token); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout removes the stored token.
func Logout(ctx context.Context, repo store.CredentialRepo) error {
	return repo.Clear(ctx)
}
