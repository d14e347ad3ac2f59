package accounts

import (
	"fmt"
	"time"
)

// ActorContext is the per request identity: either anonymous or
// authenticated with the claims recovered from the bearer token. It is
// rebuilt from the transport token on every inbound request and never
// persisted; there is no server side session table.
type ActorContext struct {
	claims *SessionClaims
}

// AnonymousActor is the resolved context for requests without a usable token.
func AnonymousActor() *ActorContext {
	return &ActorContext{}
}

// AuthenticatedActor wraps validated claims. A nil claims value degrades to
// anonymous.
func AuthenticatedActor(claims *SessionClaims) *ActorContext {
	return &ActorContext{claims: claims}
}

// IsAuthenticated reports whether the request carried a valid session token.
func (a *ActorContext) IsAuthenticated() bool {
	return a != nil && a.claims != nil
}

// Claims returns the session claims, or nil for anonymous actors.
func (a *ActorContext) Claims() *SessionClaims {
	if a == nil {
		return nil
	}
	return a.claims
}

// AccountID returns the authenticated account id, or empty for anonymous.
func (a *ActorContext) AccountID() string {
	if !a.IsAuthenticated() {
		return ""
	}
	return a.claims.AccountID()
}

// Role returns the actor's role, or empty for anonymous.
func (a *ActorContext) Role() AccountRole {
	if !a.IsAuthenticated() {
		return ""
	}
	return a.claims.Role()
}

// IsElevated reports whether the actor may enter the management area.
func (a *ActorContext) IsElevated() bool {
	return a.IsAuthenticated() && a.claims.IsElevated()
}

func (a *ActorContext) String() string {
	if !a.IsAuthenticated() {
		return "actor=anonymous"
	}

	expires := "<nil>"
	if !a.claims.Expires().IsZero() {
		expires = a.claims.Expires().Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"actor=%s role=%s email=%s exp=%s",
		a.claims.AccountID(),
		a.claims.Role(),
		a.claims.Email,
		expires,
	)
}
