package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCredentials identifies login failures regardless of cause.
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeDuplicateEmail identifies email uniqueness conflicts.
	TextCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// TextCodeTokenMalformed identifies structurally broken tokens.
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeTokenTampered identifies signature mismatches.
	TextCodeTokenTampered = "TOKEN_TAMPERED"
	// TextCodeTokenExpired identifies tokens past their expiry.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeNotAuthenticated identifies anonymous actors hitting guarded routes.
	TextCodeNotAuthenticated = "NOT_AUTHENTICATED"
	// TextCodeInsufficientRole identifies actors below the required role tier.
	TextCodeInsufficientRole = "INSUFFICIENT_ROLE"
	// TextCodeStorage identifies credential store failures.
	TextCodeStorage = "STORAGE_ERROR"
	// TextCodeEmptyPassword identifies empty plaintext passed to the hasher.
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeAccountNotFound identifies lookups that matched no account.
	TextCodeAccountNotFound = "ACCOUNT_NOT_FOUND"
	// TextCodeValidation identifies field level policy rejections.
	TextCodeValidation = "VALIDATION_ERROR"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so a
// caller cannot distinguish the two and enumerate accounts.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail is returned when a normalized email already belongs to
// another account. The store-level uniqueness constraint is the authoritative
// source of this signal.
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrTokenMalformed is returned for tokens the codec cannot parse.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenTampered is returned when the token signature does not verify.
var ErrTokenTampered = goerrors.New("session token signature mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenTampered).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for well formed, correctly signed tokens past
// their expiry window.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotAuthenticated is the guard rejection for anonymous actors.
var ErrNotAuthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrInsufficientRole is the guard rejection for actors below the required tier.
var ErrInsufficientRole = goerrors.New("insufficient role", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(goerrors.CodeForbidden)

// ErrStorage wraps credential store failures. It is the only error kind that
// may propagate to a top level handler.
var ErrStorage = goerrors.New("credential store failure", goerrors.CategoryInternal).
	WithTextCode(TextCodeStorage).
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString is returned by the hasher for empty plaintext input.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountNotFound is returned when a lookup matches no account. Store
// adapters use it to report zero affected rows distinctly from failures.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// IsValidationError reports whether err carries field level validation failures.
func IsValidationError(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}

// ValidationFields extracts the field -> message map attached to a
// validation error, or nil when err is not one.
func ValidationFields(err error) map[string]string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return nil
	}
	if richErr.TextCode != TextCodeValidation {
		return nil
	}
	fields, _ := richErr.Metadata["fields"].(map[string]string)
	return fields
}

// IsInvalidCredentials reports whether err carries the invalid credentials code.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsDuplicateEmail reports whether err carries the duplicate email code.
func IsDuplicateEmail(err error) bool {
	return hasTextCode(err, TextCodeDuplicateEmail)
}

// IsAccountNotFound reports whether err carries the account not found code.
func IsAccountNotFound(err error) bool {
	return hasTextCode(err, TextCodeAccountNotFound)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, TextCodeTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsTokenTamperedError will check for signature mismatches
func IsTokenTamperedError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, TextCodeTokenTampered) ||
		strings.Contains(err.Error(), "signature is invalid")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return hasTextCode(err, TextCodeTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsTokenError reports whether err is any of the three token failure kinds.
// They carry distinct codes for messaging but share one observable effect:
// treat the actor as anonymous and discard the token.
func IsTokenError(err error) bool {
	return IsTokenExpiredError(err) || IsTokenTamperedError(err) || IsMalformedError(err)
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	if richErr.TextCode == code {
		return true
	}
	if richErr.Source != nil {
		return hasTextCode(richErr.Source, code)
	}
	return false
}
