package accounts

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// NameRules are the policy checks shared by first and last name fields.
func NameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, 200),
		is.Alpha,
	}
}

// EmailRules are the structural checks applied before normalization.
func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(6, 100),
		is.Email,
	}
}

// PasswordPolicyRules enforce the account password policy: at least 12
// characters with one uppercase, one lowercase, one digit and one symbol.
func PasswordPolicyRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(12, 100),
		validation.By(validatePasswordComposition),
	}
}

func validatePasswordComposition(value any) error {
	s, _ := value.(string)

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return errors.New("must contain at least 1 uppercase, 1 lowercase, 1 number and 1 special character")
	}
	return nil
}

// ValidateName applies NameRules to a single value.
func ValidateName(name string) error {
	return validation.Validate(name, NameRules()...)
}

// ValidateEmail applies EmailRules to a single value.
func ValidateEmail(email string) error {
	return validation.Validate(email, EmailRules()...)
}

// ValidatePassword applies PasswordPolicyRules to a single value.
func ValidatePassword(password string) error {
	return validation.Validate(password, PasswordPolicyRules()...)
}

// validationError folds per field rule failures into a single structured
// error carrying a field -> message map in its metadata.
func validationError(fieldErrs map[string]error) error {
	fields := map[string]string{}
	for field, err := range fieldErrs {
		if err != nil {
			fields[field] = err.Error()
		}
	}

	return goerrors.New("validation failed", goerrors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for form redisplay.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fieldErrors validation.Errors
	if errors.As(err, &fieldErrors) {
		for field, fieldErr := range fieldErrors {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
