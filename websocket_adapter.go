package accounts

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSTokenValidator implements go-router's WSTokenValidator interface using
// the accounts TokenService for WebSocket authentication.
type WSTokenValidator struct {
	tokenService TokenService
}

// NewWSTokenValidator creates a new WebSocket token validator using the provided TokenService
func NewWSTokenValidator(tokenService TokenService) *WSTokenValidator {
	return &WSTokenValidator{
		tokenService: tokenService,
	}
}

// Validate validates a token string and returns WebSocket-compatible auth claims
func (w *WSTokenValidator) Validate(tokenString string) (router.WSAuthClaims, error) {
	claims, err := w.tokenService.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &WSAuthClaimsAdapter{claims: claims}, nil
}

// WSAuthClaimsAdapter adapts SessionClaims to go-router's WSAuthClaims
// interface. The role tier model has no per resource permissions, so the
// resource checks collapse onto the tier: any session can read, only
// elevated sessions mutate.
type WSAuthClaimsAdapter struct {
	claims *SessionClaims
}

// Subject returns the subject claim
func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.RegisteredClaims.Subject
}

// UserID returns the account id carried by the token
func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.AccountID()
}

// Role returns the account's role
func (w *WSAuthClaimsAdapter) Role() string {
	return w.claims.Role()
}

// CanRead reports whether the session may read the resource
func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return w.claims.AccountID() != ""
}

// CanEdit reports whether the session may edit the resource
func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return w.claims.IsElevated()
}

// CanCreate reports whether the session may create the resource
func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return w.claims.IsElevated()
}

// CanDelete reports whether the session may delete the resource
func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return w.claims.IsElevated()
}

// HasRole checks if the session has a specific role
func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.claims.HasRole(role)
}

// IsAtLeast checks if the session's role is at least the minimum required role
func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	return w.claims.IsAtLeast(minRole)
}

// NewWSAuthMiddleware creates a fully configured WebSocket authentication
// middleware using the Auther's token service.
func (s *Auther) NewWSAuthMiddleware(config ...router.WSAuthConfig) router.WebSocketMiddleware {
	validator := NewWSTokenValidator(s.tokenService)

	var cfg router.WSAuthConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = validator

	return router.NewWSAuth(cfg)
}

// WSSessionClaimsFromContext retrieves the session claims stored by the
// WebSocket auth middleware, if they originated here.
func WSSessionClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	wsAuthClaims, ok := router.WSAuthClaimsFromContext(ctx)
	if !ok {
		return nil, false
	}

	if adapter, ok := wsAuthClaims.(*WSAuthClaimsAdapter); ok {
		return adapter.claims, true
	}

	return nil, false
}
