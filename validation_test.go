package accounts_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Sup3r-Secret-Pass!", false},
		{"too short", "Ab1!x", true},
		{"missing uppercase", "lowercase-only-123!", true},
		{"missing lowercase", "UPPERCASE-ONLY-123!", true},
		{"missing digit", "No-Digits-In-Here!", true},
		{"missing symbol", "NoSymbolsHere123", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := accounts.ValidatePassword(tc.password)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, accounts.ValidateEmail("ann@example.com"))
	assert.Error(t, accounts.ValidateEmail("not-an-email"))
	assert.Error(t, accounts.ValidateEmail(""))
	assert.Error(t, accounts.ValidateEmail("a@b.c"))
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, accounts.ValidateName("Ann"))
	assert.Error(t, accounts.ValidateName(""))
	assert.Error(t, accounts.ValidateName("Ann42"))
}

func TestValidateRegistrationCollectsFieldErrors(t *testing.T) {
	t.Parallel()

	err := accounts.ValidateRegistration(accounts.RegisterAccountMessage{
		FirstName: "",
		LastName:  "Smith",
		Email:     "nope",
		Password:  "weak",
	})
	require.Error(t, err)
	assert.True(t, accounts.IsValidationError(err))

	fields := accounts.ValidationFields(err)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.NotContains(t, fields, "last_name")
}

func TestValidateRegistrationPasses(t *testing.T) {
	t.Parallel()

	err := accounts.ValidateRegistration(accounts.RegisterAccountMessage{
		FirstName: "Ann",
		LastName:  "Smith",
		Email:     "ann@example.com",
		Password:  "Sup3r-Secret-Pass!",
	})
	assert.NoError(t, err)
}

func TestValidateStringEquals(t *testing.T) {
	t.Parallel()

	rule := accounts.ValidateStringEquals("expected")
	assert.NoError(t, rule("expected"))
	assert.Error(t, rule("different"))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Parallel()

	assert.Empty(t, accounts.FormatValidationErrorToMap(nil))

	fieldErrs := validation.Errors{
		"email": errors.New("must be a valid email address"),
	}
	out := accounts.FormatValidationErrorToMap(fieldErrs)
	assert.Equal(t, "must be a valid email address", out["email"])

	out = accounts.FormatValidationErrorToMap(errors.New("boom"))
	assert.Equal(t, "boom", out["form"])
}
