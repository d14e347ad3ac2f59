package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/sessionware"
)

// ValidationListener aliases the sessionware listener so consumers can use
// accounts helpers directly.
type ValidationListener = sessionware.ValidationListener

// ContextEnricherAdapter stores claims + actor context in the standard
// context for downstream guard usage.
func ContextEnricherAdapter(c context.Context, claims sessionware.SessionClaims) context.Context {
	sessionClaims, ok := claims.(*SessionClaims)
	if !ok {
		return c
	}

	ctxWithClaims := WithClaimsContext(c, sessionClaims)

	return WithActorContext(ctxWithClaims, AuthenticatedActor(sessionClaims))
}

// RegisterValidationListeners appends listeners to a sessionware.Config in a
// safe, reusable way.
func RegisterValidationListeners(cfg *sessionware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
