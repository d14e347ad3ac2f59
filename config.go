package accounts

import "time"

// DefaultTokenTTL matches the session cookie max-age used by the outer web
// layer when none is configured.
const DefaultTokenTTL = time.Hour

// SimpleConfig is a literal Config implementation for embedding apps.
// Construct it once at startup and treat it as immutable.
type SimpleConfig struct {
	SigningKey           string
	SigningMethod        string
	CookieName           string
	TokenTTL             time.Duration
	ExtendedTokenTTL     time.Duration
	TokenLookup          string
	AuthScheme           string
	Issuer               string
	Audience             []string
	InsecureCookies      bool
	RejectedRouteKey     string
	RejectedRouteDefault string
}

var _ Config = SimpleConfig{}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c SimpleConfig) GetCookieName() string {
	if c.CookieName == "" {
		return "jwt"
	}
	return c.CookieName
}

func (c SimpleConfig) GetTokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

func (c SimpleConfig) GetExtendedTokenTTL() time.Duration {
	if c.ExtendedTokenTTL <= 0 {
		return c.GetTokenTTL()
	}
	return c.ExtendedTokenTTL
}

func (c SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "cookie:" + c.GetCookieName()
	}
	return c.TokenLookup
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetIssuer() string { return c.Issuer }

func (c SimpleConfig) GetAudience() []string { return c.Audience }

// GetSecureCookies reports whether session cookies are marked Secure.
// Deployments behind plain HTTP (local development) opt out explicitly.
func (c SimpleConfig) GetSecureCookies() bool { return !c.InsecureCookies }

func (c SimpleConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return c.RejectedRouteKey
}

func (c SimpleConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}
