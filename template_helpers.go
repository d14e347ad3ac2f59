package accounts

import (
	"maps"

	"github.com/goliatone/go-accounts/middleware/csrf"
	"github.com/goliatone/go-router"
)

var TemplateUserKey = "current_user"

// TemplateHelpers returns a map of helper functions and data that can be used
// with go-template's WithGlobalData option for session aware templates.
//
// Usage:
//
//	renderer, err := template.NewRenderer(
//	    template.WithBaseDir("./templates"),
//	    template.WithGlobalData(accounts.TemplateHelpers()),
//	)
//
// In templates, you can then use:
//
//	{% if current_user %}
//	{% if current_user|has_role:"admin" %}
//	{% if current_user|is_elevated %}
//	{{ csrf_field }}
//	{{ csrf_token }}
func TemplateHelpers() map[string]any {
	helpers := map[string]any{
		"is_authenticated": isTemplateAuthenticated,
		"has_role":         templateHasRole,
		"is_at_least":      templateIsAtLeast,
		"is_elevated":      templateIsElevated,

		// Role constants for easy template access
		"roles": map[string]string{
			"customer": RoleCustomer,
			"employee": RoleEmployee,
			"admin":    RoleAdmin,
		},
	}

	// add CSRF template helpers
	maps.Copy(helpers, csrf.CSRFTemplateHelpers())

	return helpers
}

// TemplateHelpersWithActor returns template helpers with a specific actor set
// as current_user, for injecting the session directly into the global context.
func TemplateHelpersWithActor(actor *ActorContext) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateUserKey] = actor
	return helpers
}

// TemplateHelpersWithRouter returns template helpers with session data pulled
// from the router context populated by the session middleware. It also
// includes CSRF token helpers when a CSRF token is available in the context.
func TemplateHelpersWithRouter(ctx router.Context, userKey string) map[string]any {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	helpers := TemplateHelpers()

	if user := ctx.Locals(userKey); user != nil {
		helpers[TemplateUserKey] = user
	} else {
		helpers[TemplateUserKey] = RouterActor(ctx, "")
	}

	for key, value := range csrf.CSRFTemplateHelpersWithRouter(ctx, csrf.DefaultContextKey) {
		helpers[key] = value
	}

	return helpers
}

// GetTemplateUser extracts session data from the router context for template
// usage. It returns the object and a boolean indicating if it was found.
func GetTemplateUser(ctx router.Context, userKey string) (any, bool) {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	user := ctx.Locals(userKey)
	return user, user != nil
}

// isTemplateAuthenticated checks if the provided session object carries a
// logged in account.
func isTemplateAuthenticated(user any) bool {
	switch u := user.(type) {
	case *ActorContext:
		return u.IsAuthenticated()
	case *SessionClaims:
		return u != nil && u.AccountID() != ""
	case *Account:
		return u != nil
	case map[string]any:
		// Handle JSON-converted session objects
		return len(u) > 0
	default:
		return false
	}
}

// templateHasRole checks if the session has the exact role.
func templateHasRole(user any, role string) bool {
	switch u := user.(type) {
	case *ActorContext:
		return u.IsAuthenticated() && u.Role() == role
	case *SessionClaims:
		return u != nil && u.HasRole(role)
	case *Account:
		return u != nil && u.Role == role
	case map[string]any:
		if rawRole, exists := u["role"]; exists {
			if roleStr, ok := rawRole.(string); ok {
				return roleStr == role
			}
		}
		return false
	default:
		return false
	}
}

// templateIsAtLeast checks the session role against the role hierarchy.
func templateIsAtLeast(user any, minRole string) bool {
	switch u := user.(type) {
	case *ActorContext:
		return u.IsAuthenticated() && IsAtLeast(u.Role(), minRole)
	case *SessionClaims:
		return u != nil && u.IsAtLeast(minRole)
	case *Account:
		return u != nil && IsAtLeast(u.Role, minRole)
	case map[string]any:
		if rawRole, exists := u["role"]; exists {
			if roleStr, ok := rawRole.(string); ok {
				return IsAtLeast(roleStr, minRole)
			}
		}
		return false
	default:
		return false
	}
}

// templateIsElevated reports whether the session may enter the management area.
func templateIsElevated(user any) bool {
	switch u := user.(type) {
	case *ActorContext:
		return u.IsElevated()
	case *SessionClaims:
		return u != nil && u.IsElevated()
	case *Account:
		return u != nil && IsElevated(u.Role)
	case map[string]any:
		if rawRole, exists := u["role"]; exists {
			if roleStr, ok := rawRole.(string); ok {
				return IsElevated(roleStr)
			}
		}
		return false
	default:
		return false
	}
}
