package accounts

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-accounts/middleware/sessionware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator maps the credential flows onto the session cookie
// transport. It owns cookie writes; handlers never touch Set-Cookie directly.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	tokenTTL         time.Duration
	extendedTokenTTL time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:              cfg,
		auth:             auther,
		Logger:           defLogger{},
		tokenTTL:         cfg.GetTokenTTL(),
		extendedTokenTTL: cfg.GetExtendedTokenTTL(),
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetTokenTTL() time.Duration {
	return a.tokenTTL
}

func (a RouteAuthenticator) GetExtendedTokenTTL() time.Duration {
	return a.extendedTokenTTL
}

// SessionMiddleware resolves the session cookie into an actor on every
// request. Token failures never fail the request; the actor comes out
// anonymous and the stale cookie is cleared.
func (a *RouteAuthenticator) SessionMiddleware() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return sessionware.New(sessionware.Config{
			SigningKey: sessionware.SigningKey{
				Key:    []byte(a.cfg.GetSigningKey()),
				JWTAlg: a.cfg.GetSigningMethod(),
			},
			AuthScheme:    a.cfg.GetAuthScheme(),
			CookieName:    a.cfg.GetCookieName(),
			TokenLookup:   a.cfg.GetTokenLookup(),
			Issuer:        a.cfg.GetIssuer(),
			Audience:      a.cfg.GetAudience(),
			SecureCookies: a.cfg.GetSecureCookies(),
			Logger:        a.Logger,
			TokenValidator: sessionware.TokenValidatorFunc(func(raw string) (sessionware.SessionClaims, error) {
				claims, err := a.auth.SessionFromToken(raw)
				if err != nil {
					return nil, err
				}
				return claims, nil
			}),
			ActorFactory: func(sc sessionware.SessionClaims) any {
				if claims, ok := sc.(*SessionClaims); ok {
					return AuthenticatedActor(claims)
				}
				return AnonymousActor()
			},
			AnonymousActor: func() any {
				return AnonymousActor()
			},
			ContextEnricher: func(ctx context.Context, sc sessionware.SessionClaims) context.Context {
				if claims, ok := sc.(*SessionClaims); ok {
					ctx = WithClaimsContext(ctx, claims)
					ctx = WithActorContext(ctx, AuthenticatedActor(claims))
				}
				return ctx
			},
			SuccessHandler: func(c router.Context) error {
				return hf(c)
			},
		})
	}
}

// Login verifies the payload credentials and, on success, writes the session
// cookie. Failures leave the cookie untouched.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) error {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	ttl := a.tokenTTL
	if payload.GetExtendedSession() {
		ttl = a.extendedTokenTTL
	}

	a.SetSessionToken(ctx, token, ttl)
	return nil
}

// Logout discards the session cookie. The token itself stays valid until it
// expires; statelessness means there is nothing server side to revoke.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.ClearSessionToken(ctx)
}

// SetSessionToken writes the session cookie with the transport attributes
// the session middleware expects.
func (a *RouteAuthenticator) SetSessionToken(c router.Context, token string, ttl time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookies(),
		SameSite: "Lax",
	})
}

// ClearSessionToken expires the session cookie immediately.
func (a *RouteAuthenticator) ClearSessionToken(c router.Context) {
	a.cookieDel(c, a.cfg.GetCookieName())
}

func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Info("setting redirect cookie %s to %s", rejectedRoute, ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookies(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookies(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"authentication error %s (%s) at %s, redirecting to login",
		richErr.Message,
		richErr.TextCode,
		c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/account/login", statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"middleware error handler: %s category=%v details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)
