package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload embedded in a bearer token: a projection of
// Account fields excluding the password hash. The struct has no field that
// could carry the hash, so no code path can embed it.
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountRole AccountRole `json:"role,omitempty"`
	FirstName   string      `json:"first_name,omitempty"`
	LastName    string      `json:"last_name,omitempty"`
	Email       string      `json:"email,omitempty"`
}

// ClaimsFromAccount projects an account into session claims. Registered
// claims (iss, aud, iat, exp) are filled in by the token service at issue
// time.
func ClaimsFromAccount(account *Account) *SessionClaims {
	if account == nil {
		return nil
	}

	return &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: account.ID.String(),
		},
		AccountRole: account.Role,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Email:       account.Email,
	}
}

// AccountID returns the subject claim as string.
func (c *SessionClaims) AccountID() string {
	return c.RegisteredClaims.Subject
}

// AccountUUID parses the subject claim into a uuid.
func (c *SessionClaims) AccountUUID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// Role returns the account role carried by the token.
func (c *SessionClaims) Role() AccountRole {
	return c.AccountRole
}

// HasRole checks if the claims carry a specific role
func (c *SessionClaims) HasRole(role AccountRole) bool {
	return c.AccountRole == role
}

// IsElevated checks if the claims grant access to the management area
func (c *SessionClaims) IsElevated() bool {
	return IsElevated(c.AccountRole)
}

// IsAtLeast checks if the carried role is at least the minimum required role
func (c *SessionClaims) IsAtLeast(minRole AccountRole) bool {
	return IsAtLeast(c.AccountRole, minRole)
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
