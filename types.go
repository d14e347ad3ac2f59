package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	SessionFromToken(token string) (*SessionClaims, error)
	AccountFromClaims(ctx context.Context, claims *SessionClaims) (*Account, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// HTTPAuthenticator maps the core flows onto the cookie transport
type HTTPAuthenticator interface {
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context)
	SetSessionToken(c router.Context, token string, ttl time.Duration)
	ClearSessionToken(c router.Context)
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
	GetRedirectOrDefault(c router.Context) string
}

// Config holds auth options. Implementations should be constructed once and
// treated as immutable for the process lifetime; the signing key in
// particular has lifecycle = process lifetime.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetCookieName() string
	GetTokenTTL() time.Duration
	GetExtendedTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetSecureCookies() bool
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// TokenService signs session claims into bearer tokens and verifies them
type TokenService interface {
	TokenValidator
	Issue(claims *SessionClaims, ttl time.Duration) (string, error)
	IssueForAccount(account *Account, ttl time.Duration) (string, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
