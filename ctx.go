package accounts

import (
	"context"

	"github.com/goliatone/go-router"
)

var actorCtxKey = &contextKey{"actor"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithActorContext sets the ActorContext in the given context
func WithActorContext(r context.Context, actor *ActorContext) context.Context {
	return context.WithValue(r, actorCtxKey, actor)
}

// ActorFromContext finds the actor from the context. Requests that never
// passed through the session middleware resolve to anonymous.
func ActorFromContext(ctx context.Context) *ActorContext {
	if actor, ok := ctx.Value(actorCtxKey).(*ActorContext); ok && actor != nil {
		return actor
	}
	return AnonymousActor()
}

// WithClaimsContext sets the SessionClaims in the given context
func WithClaimsContext(r context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the SessionClaims from the standard context
func GetClaims(ctx context.Context) (*SessionClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*SessionClaims)
	return raw, ok
}

// GetRouterClaims extracts the SessionClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (*SessionClaims, bool) {
	if key == "" {
		key = "session_claims"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(*SessionClaims)
	return claims, ok
}

// RouterActor resolves the actor stored by the session middleware on the
// router context, defaulting to anonymous.
func RouterActor(ctx router.Context, key string) *ActorContext {
	if key == "" {
		key = "actor"
	}
	raw := ctx.Locals(key)
	if actor, ok := raw.(*ActorContext); ok && actor != nil {
		return actor
	}
	return AnonymousActor()
}
