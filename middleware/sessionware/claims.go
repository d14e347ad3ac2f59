package sessionware

import (
	"github.com/golang-jwt/jwt/v5"
)

// roleRanks mirrors the accounts package role hierarchy for standalone use.
var roleRanks = map[string]int{
	"customer": 0,
	"employee": 1,
	"admin":    2,
}

// tokenClaims is the claims shape used when the middleware validates tokens
// itself instead of delegating to an external TokenValidator.
type tokenClaims struct {
	jwt.RegisteredClaims
	AccountRole  string `json:"role"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email"`
}

func (c *tokenClaims) AccountID() string { return c.Subject }

func (c *tokenClaims) Role() string { return c.AccountRole }

func (c *tokenClaims) HasRole(role string) bool { return c.AccountRole == role }

func (c *tokenClaims) IsAtLeast(minRole string) bool {
	min, ok := roleRanks[minRole]
	if !ok {
		return false
	}
	have, ok := roleRanks[c.AccountRole]
	if !ok {
		return false
	}
	return have >= min
}

func (c *tokenClaims) IsElevated() bool {
	return c.AccountRole == "employee" || c.AccountRole == "admin"
}

// newKeyfuncValidator builds the default validator from the configured key
// material. Embedding applications usually inject their own TokenValidator
// instead so error taxonomy and clock handling stay in one place.
func newKeyfuncValidator(cfg Config) TokenValidator {
	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	for _, aud := range cfg.Audience {
		opts = append(opts, jwt.WithAudience(aud))
	}

	return TokenValidatorFunc(func(raw string) (SessionClaims, error) {
		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, cfg.KeyFunc, opts...)
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, jwt.ErrTokenUnverifiable
		}
		return claims, nil
	})
}
