package sessionware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "cookie:jwt"
	// ErrTokenMissing is returned by extractors when no token is present in
	// the configured lookup locations.
	ErrTokenMissing = errors.New("missing or malformed session token")
)

// SessionClaims is the view of validated claims the middleware needs.
// It mirrors the claims type of the accounts package without importing it.
type SessionClaims interface {
	AccountID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	IsElevated() bool
}

// TokenValidator validates a raw token into claims.
type TokenValidator interface {
	Validate(tokenString string) (SessionClaims, error)
}

// TokenValidatorFunc adapts a function to the TokenValidator interface.
type TokenValidatorFunc func(tokenString string) (SessionClaims, error)

// Validate implements TokenValidator.
func (f TokenValidatorFunc) Validate(tokenString string) (SessionClaims, error) {
	return f(tokenString)
}

// Logger mirrors the accounts package logger.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ValidationListener is invoked after a token has been validated but before
// the request proceeds.
type ValidationListener func(ctx router.Context, claims SessionClaims) error

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	SigningKey     SigningKey
	SigningKeys    map[string]SigningKey
	KeyFunc        jwt.Keyfunc
	JWKSetURLs     []string

	// CookieName is the session cookie cleared when its token fails
	// validation. Defaults to "jwt".
	CookieName string
	// SecureCookies controls the Secure attribute on the clearing cookie.
	SecureCookies bool

	TokenLookup string
	AuthScheme  string
	Issuer      string
	Audience    []string

	// ClaimsKey is the router locals key holding validated claims.
	ClaimsKey string
	// ActorKey is the router locals key holding the resolved actor.
	ActorKey string

	// TokenValidator overrides the default KeyFunc based validation, e.g.
	// to reuse the token service of the embedding application.
	TokenValidator TokenValidator

	// ActorFactory builds the actor stored under ActorKey from validated
	// claims. AnonymousActor builds the actor for requests without a valid
	// token. Both optional.
	ActorFactory   func(claims SessionClaims) any
	AnonymousActor func() any

	// ContextEnricher propagates claims to the standard Go context after
	// successful validation.
	ContextEnricher func(c context.Context, claims SessionClaims) context.Context

	ValidationListeners []ValidationListener

	Logger Logger
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

// New builds the session resolution handler. Every request passes through
// it: a valid token yields an authenticated actor, anything else yields the
// anonymous actor and clears the stale cookie. Token failures never abort
// the request.
func New(config ...Config) router.HandlerFunc {
	cfg := GetDefaultConfig(config...)

	return func(ctx router.Context) error {
		if cfg.Filter != nil && cfg.Filter(ctx) {
			return ctx.Next()
		}

		raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
		if err != nil || raw == "" {
			return cfg.proceedAnonymous(ctx, false)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			cfg.Logger.Debug("session token rejected: %v", err)
			return cfg.proceedAnonymous(ctx, true)
		}

		if err := cfg.runValidationListeners(ctx, claims); err != nil {
			return cfg.ErrorHandler(ctx, err)
		}

		ctx.Locals(cfg.ClaimsKey, claims)
		if cfg.ActorFactory != nil {
			ctx.Locals(cfg.ActorKey, cfg.ActorFactory(claims))
		}

		if cfg.ContextEnricher != nil {
			ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims))
		}

		return cfg.SuccessHandler(ctx)
	}
}

// proceedAnonymous resolves the request as anonymous. When clearCookie is
// set the session cookie held a token that failed validation and gets
// expired so the client stops sending it.
func (cfg *Config) proceedAnonymous(ctx router.Context, clearCookie bool) error {
	if clearCookie {
		ctx.Cookie(&router.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour * (24 * 365)),
			HTTPOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: "Lax",
		})
	}

	if cfg.AnonymousActor != nil {
		ctx.Locals(cfg.ActorKey, cfg.AnonymousActor())
	}

	return cfg.SuccessHandler(ctx)
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return err
		}
	}

	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "jwt"
	}

	if cfg.ClaimsKey == "" {
		cfg.ClaimsKey = "session_claims"
	}

	if cfg.ActorKey == "" {
		cfg.ActorKey = "actor"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = "cookie:" + cfg.CookieName
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.TokenValidator == nil && cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
		panic("ACCOUNTS: session middleware configuration: At least one of the following is required: TokenValidator, KeyFunc, JWKSetURLs, SigningKeys, or SigningKey.")
	}

	if cfg.KeyFunc == nil && cfg.TokenValidator == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
				}
			} else {
				cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	if cfg.TokenValidator == nil {
		cfg.TokenValidator = newKeyfuncValidator(cfg)
	}

	return cfg
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}

func (cfg *Config) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims SessionClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}

type defLogger struct{}

func (defLogger) Error(format string, args ...any) { log.Printf("[ERR] SESSION "+format, args...) }
func (defLogger) Warn(format string, args ...any)  { log.Printf("[WRN] SESSION "+format, args...) }
func (defLogger) Info(format string, args ...any)  { log.Printf("[INF] SESSION "+format, args...) }
func (defLogger) Debug(format string, args ...any) { log.Printf("[DBG] SESSION "+format, args...) }
