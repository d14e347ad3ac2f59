package accounts

import (
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RequireAuthenticated is the pure transition guard over the resolved actor:
// anonymous actors are rejected, any authenticated role passes.
func RequireAuthenticated(actor *ActorContext) error {
	if !actor.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireElevated rejects every actor whose role is not employee or admin,
// anonymous included.
func RequireElevated(actor *ActorContext) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsElevated() {
		return ErrInsufficientRole
	}
	return nil
}

// GuardConfig controls how guard middleware turns rejections into redirects.
type GuardConfig struct {
	// ActorKey is the router locals key the session middleware stored the actor under.
	ActorKey string
	// LoginRoute is where rejected requests are sent.
	LoginRoute string
	// Notice is the user facing message flashed alongside the redirect.
	Notice string
}

func (c GuardConfig) loginRoute() string {
	if c.LoginRoute == "" {
		return "/account/login"
	}
	return c.LoginRoute
}

// AuthenticatedGuard returns middleware that redirects anonymous actors to
// the login route with a notice. It never surfaces the raw error.
func AuthenticatedGuard(cfg GuardConfig) router.MiddlewareFunc {
	if cfg.Notice == "" {
		cfg.Notice = "Please log in."
	}
	return guardMiddleware(cfg, RequireAuthenticated)
}

// ElevatedGuard returns middleware that admits employee and admin actors and
// redirects everyone else to the login route with a notice.
func ElevatedGuard(cfg GuardConfig) router.MiddlewareFunc {
	if cfg.Notice == "" {
		cfg.Notice = "You do not have the required authorization to access this area. Please log in with an authorized account."
	}
	return guardMiddleware(cfg, RequireElevated)
}

func guardMiddleware(cfg GuardConfig, check func(*ActorContext) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			actor := RouterActor(ctx, cfg.ActorKey)
			if err := check(actor); err != nil {
				return flash.WithError(ctx, router.ViewContext{
					"system_message": cfg.Notice,
				}).Redirect(cfg.loginRoute(), router.StatusSeeOther)
			}
			return hf(ctx)
		}
	}
}
