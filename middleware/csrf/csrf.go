// Package csrf protects the storefront's form posts. Tokens are HMAC
// signed and scoped to the session: an authenticated request binds the
// token to the account carried by the session claims, an anonymous one
// falls back to the client address.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

var (
	// ErrTokenMissing is returned when no token was submitted with an
	// unsafe request.
	ErrTokenMissing = goerrors.New("csrf token missing", goerrors.CategoryBadInput).
			WithTextCode("CSRF_TOKEN_MISSING").
			WithCode(goerrors.CodeBadRequest)

	// ErrTokenMismatch is returned when the submitted token does not
	// verify against the session scope.
	ErrTokenMismatch = goerrors.New("csrf token mismatch", goerrors.CategoryAuthz).
				WithTextCode("CSRF_TOKEN_MISMATCH").
				WithCode(goerrors.CodeForbidden)

	// ErrTokenExpired is returned for verified tokens past the
	// configured window.
	ErrTokenExpired = goerrors.New("csrf token expired", goerrors.CategoryAuthz).
			WithTextCode("CSRF_TOKEN_EXPIRED").
			WithCode(goerrors.CodeForbidden)

	// ErrSecureKeyMissing is returned when stateless mode is used
	// without key material.
	ErrSecureKeyMissing = goerrors.New("csrf secure key required for stateless mode", goerrors.CategoryInternal).
				WithTextCode("CSRF_KEY_MISSING").
				WithCode(goerrors.CodeInternal)
)

const (
	// DefaultTokenLength is the nonce length in bytes.
	DefaultTokenLength = 32

	// DefaultContextKey is the locals key the middleware stores the token under.
	DefaultContextKey = "csrf_token"

	// DefaultFormFieldName matches the hidden input the account forms render.
	DefaultFormFieldName = "_csrf"

	// DefaultHeaderName is the header checked for fetch/XHR submissions.
	DefaultHeaderName = "X-CSRF-Token"

	// DefaultTemplateHelpersKey is the locals key helper maps merge into.
	DefaultTemplateHelpersKey = "template_helpers"

	// DefaultExpiration bounds how long a minted token verifies.
	DefaultExpiration = 24 * time.Hour
)

// sessionSubject is the slice of the session claims the scope key needs.
// The accounts package satisfies it without this package importing it.
type sessionSubject interface {
	AccountID() string
}

// claimsLocalsKey mirrors the key the session middleware stores claims under.
const claimsLocalsKey = "session_claims"

// TemplateHelperFactory lets template engines evaluate form helpers lazily
// per request instead of receiving static strings.
type TemplateHelperFactory func(name string, fallback string) any

var (
	helperFactory   TemplateHelperFactory
	helperFactoryMu sync.RWMutex
)

// SetTemplateHelperFactory registers the factory used to build form helpers.
// Passing nil restores the static string defaults.
func SetTemplateHelperFactory(factory TemplateHelperFactory) {
	helperFactoryMu.Lock()
	defer helperFactoryMu.Unlock()
	helperFactory = factory
}

func getTemplateHelperFactory() TemplateHelperFactory {
	helperFactoryMu.RLock()
	defer helperFactoryMu.RUnlock()
	return helperFactory
}

// Storage persists tokens for the storage backed mode. When nil the
// middleware runs stateless, verifying HMAC signed tokens instead.
type Storage interface {
	Get(key string) (string, error)
	Set(key string, value string, expiration time.Duration) error
	Delete(key string) error
}

// TokenExtractor pulls a submitted token out of the request.
type TokenExtractor func(router.Context) (string, error)

// Config controls the middleware.
type Config struct {
	// Skip short circuits the middleware when it returns true.
	Skip func(router.Context) bool

	// TokenLength is the nonce length in bytes.
	TokenLength int

	// ContextKey is the locals key the minted token is stored under.
	ContextKey string

	// FormFieldName is the hidden form field checked on submit.
	FormFieldName string

	// HeaderName is the request header checked on submit.
	HeaderName string

	// TokenLookup orders the extractors, e.g. "form:_csrf,header:X-CSRF-Token".
	TokenLookup string

	// Storage switches to storage backed tokens when set.
	Storage Storage

	// ErrorHandler receives every rejection.
	ErrorHandler router.ErrorHandler

	// SuccessHandler runs after the token checks pass.
	SuccessHandler router.HandlerFunc

	// SafeMethods lists methods that are never validated.
	SafeMethods []string

	// Expiration bounds token lifetime.
	Expiration time.Duration

	// SecureKey signs stateless tokens. Must be at least 32 bytes.
	SecureKey []byte

	// DisableTemplateHelpers leaves the helper map out of locals.
	DisableTemplateHelpers bool

	// TemplateHelpersKey overrides where the helper map merges into.
	TemplateHelpersKey string
}

// New returns middleware that mints a token for every request and
// validates submissions on unsafe methods.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := configDefault(config...)

		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			token, err := resolveToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)
			ctx.Locals(cfg.ContextKey+"_header", cfg.HeaderName)
			if !cfg.DisableTemplateHelpers {
				helpers := CSRFTemplateHelpersWithRouter(ctx, cfg.ContextKey)
				ctx.LocalsMerge(cfg.TemplateHelpersKey, helpers)
			}

			method := strings.ToUpper(ctx.Method())
			if slices.Contains(cfg.SafeMethods, method) {
				return cfg.SuccessHandler(ctx)
			}

			if err := verifySubmission(ctx, cfg, token); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// resolveToken returns the token for this request, minting one when the
// scope has none yet.
func resolveToken(ctx router.Context, cfg Config) (string, error) {
	if cfg.Storage == nil {
		return mintStatelessToken(ctx, cfg)
	}

	scope := sessionScope(ctx)
	if token, err := cfg.Storage.Get(scope); err == nil && token != "" {
		return token, nil
	}

	token, err := randomHex(cfg.TokenLength)
	if err != nil {
		return "", err
	}

	if err := cfg.Storage.Set(scope, token, cfg.Expiration); err != nil {
		return "", err
	}

	return token, nil
}

func verifySubmission(ctx router.Context, cfg Config, expected string) error {
	submitted, err := extractToken(ctx, cfg)
	if err != nil {
		return err
	}

	if submitted == "" {
		return ErrTokenMissing
	}

	if cfg.Storage != nil {
		if expected == "" {
			return ErrTokenMismatch
		}
		if subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) != 1 {
			return ErrTokenMismatch
		}
		return nil
	}

	return verifyStatelessToken(ctx, cfg, submitted)
}

func randomHex(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// mintStatelessToken signs timestamp:nonce:scope so verification needs no
// server side state.
func mintStatelessToken(ctx router.Context, cfg Config) (string, error) {
	if len(cfg.SecureKey) == 0 {
		return "", ErrSecureKeyMissing
	}

	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d:%s:%s",
		time.Now().UTC().Unix(), hex.EncodeToString(nonce), sessionScope(ctx))

	mac := hmac.New(sha256.New, cfg.SecureKey)
	mac.Write([]byte(payload))

	token := payload + ":" + hex.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func verifyStatelessToken(ctx router.Context, cfg Config, token string) error {
	if len(cfg.SecureKey) == 0 {
		return ErrSecureKeyMissing
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 4 {
		return ErrTokenMismatch
	}

	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	if _, err := hex.DecodeString(parts[1]); err != nil {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(parts[3])
	if err != nil {
		return ErrTokenMismatch
	}

	payload := strings.Join(parts[:3], ":")
	mac := hmac.New(sha256.New, cfg.SecureKey)
	mac.Write([]byte(payload))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return ErrTokenMismatch
	}

	// a token minted for one session scope never verifies for another
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(sessionScope(ctx))) != 1 {
		return ErrTokenMismatch
	}

	if cfg.Expiration > 0 {
		if time.Now().UTC().After(time.Unix(issuedAt, 0).Add(cfg.Expiration)) {
			return ErrTokenExpired
		}
	}

	return nil
}

func extractToken(ctx router.Context, cfg Config) (string, error) {
	for _, extractor := range getExtractors(cfg.TokenLookup, cfg.FormFieldName, cfg.HeaderName) {
		token, err := extractor(ctx)
		if token != "" && err == nil {
			return token, nil
		}
	}

	return "", nil
}

// sessionScope keys the token to the authenticated account when the
// session middleware resolved one, otherwise to the client address.
func sessionScope(ctx router.Context) string {
	if raw := ctx.Locals(claimsLocalsKey); raw != nil {
		if claims, ok := raw.(sessionSubject); ok && claims.AccountID() != "" {
			return "csrf_account_" + claims.AccountID()
		}
	}

	return "csrf_ip_" + ctx.IP()
}

func getExtractors(tokenLookup, formField, header string) []TokenExtractor {
	if tokenLookup == "" {
		return []TokenExtractor{
			extractorFromForm(formField),
			extractorFromHeader(header),
		}
	}

	var extractors []TokenExtractor
	for _, part := range strings.Split(tokenLookup, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "form:"):
			extractors = append(extractors, extractorFromForm(strings.TrimPrefix(part, "form:")))
		case strings.HasPrefix(part, "header:"):
			extractors = append(extractors, extractorFromHeader(strings.TrimPrefix(part, "header:")))
		}
	}

	return extractors
}

func extractorFromForm(fieldName string) TokenExtractor {
	return func(ctx router.Context) (string, error) {
		return ctx.FormValue(fieldName), nil
	}
}

func extractorFromHeader(headerName string) TokenExtractor {
	return func(ctx router.Context) (string, error) {
		return ctx.GetString(headerName, ""), nil
	}
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}

	if cfg.Expiration == 0 {
		cfg.Expiration = DefaultExpiration
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.TemplateHelpersKey == "" {
		cfg.TemplateHelpersKey = DefaultTemplateHelpersKey
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey, cfg.Storage)

	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	switch err {
	case ErrTokenMissing:
		return ctx.Status(router.StatusBadRequest).SendString("CSRF token missing")
	case ErrTokenMismatch:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token mismatch")
	case ErrTokenExpired:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token expired")
	default:
		return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
	}
}

func initializeSecureKey(current []byte, storage Storage) []byte {
	if storage != nil {
		return current
	}
	if len(current) > 0 {
		if len(current) < 32 {
			panic(fmt.Errorf("csrf: secure key must be at least 32 bytes, got %d", len(current)))
		}
		return current
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(fmt.Errorf("csrf: unable to initialize secure key: %w", err))
	}
	return key
}

// CSRFTemplateHelpers returns the form helpers with empty token values, for
// rendering outside a request scope.
func CSRFTemplateHelpers() map[string]any {
	base := map[string]string{
		"csrf_token":       "",
		"csrf_field":       `<input type="hidden" name="` + DefaultFormFieldName + `" value="">`,
		"csrf_meta":        `<meta name="csrf-token" content="">`,
		"csrf_header_name": DefaultHeaderName,
	}

	result := make(map[string]any, len(base))
	if factory := getTemplateHelperFactory(); factory != nil {
		for key, value := range base {
			result[key] = factory(key, value)
		}
		return result
	}

	for key, value := range base {
		result[key] = value
	}

	return result
}

// CSRFTemplateHelpersWithRouter returns the form helpers populated from the
// token the middleware stored on the request.
func CSRFTemplateHelpersWithRouter(ctx router.Context, tokenKey string) map[string]any {
	if tokenKey == "" {
		tokenKey = DefaultContextKey
	}

	token := ""
	if value := ctx.Locals(tokenKey); value != nil {
		if str, ok := value.(string); ok {
			token = str
		}
	}

	fieldName := DefaultFormFieldName
	if raw := ctx.Locals(tokenKey + "_field"); raw != nil {
		if val, ok := raw.(string); ok && val != "" {
			fieldName = val
		}
	}

	headerName := DefaultHeaderName
	if raw := ctx.Locals(tokenKey + "_header"); raw != nil {
		if val, ok := raw.(string); ok && val != "" {
			headerName = val
		}
	}

	return map[string]any{
		"csrf_token":       token,
		"csrf_field":       `<input type="hidden" name="` + fieldName + `" value="` + token + `">`,
		"csrf_meta":        `<meta name="csrf-token" content="` + token + `">`,
		"csrf_header_name": headerName,
	}
}
