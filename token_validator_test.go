package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func malformedValidator() accounts.TokenValidatorFunc {
	return func(string) (*accounts.SessionClaims, error) {
		return nil, accounts.ErrTokenMalformed
	}
}

func claimsValidator(claims *accounts.SessionClaims) accounts.TokenValidatorFunc {
	return func(string) (*accounts.SessionClaims, error) {
		return claims, nil
	}
}

func TestTokenValidatorFuncNilIsMalformed(t *testing.T) {
	var fn accounts.TokenValidatorFunc

	_, err := fn.Validate("anything")
	assert.True(t, accounts.IsMalformedError(err))
}

func TestMultiTokenValidatorFirstSuccessWins(t *testing.T) {
	want := accounts.ClaimsFromAccount(&accounts.Account{Email: "ann@example.com", Role: accounts.RoleCustomer})

	validator := accounts.NewMultiTokenValidator(
		malformedValidator(),
		claimsValidator(want),
		malformedValidator(),
	)

	claims, err := validator.Validate("token")
	require.NoError(t, err)
	assert.Equal(t, want, claims)
}

func TestMultiTokenValidatorMalformedTriesNext(t *testing.T) {
	want := accounts.ClaimsFromAccount(&accounts.Account{Email: "ann@example.com"})

	validator := accounts.NewMultiTokenValidator(
		malformedValidator(),
		nil, // nil entries are filtered at construction
		claimsValidator(want),
	)

	claims, err := validator.Validate("token")
	require.NoError(t, err)
	assert.Equal(t, want, claims)
}

func TestMultiTokenValidatorNonMalformedStops(t *testing.T) {
	calls := 0
	validator := accounts.NewMultiTokenValidator(
		accounts.TokenValidatorFunc(func(string) (*accounts.SessionClaims, error) {
			calls++
			return nil, accounts.ErrTokenExpired
		}),
		accounts.TokenValidatorFunc(func(string) (*accounts.SessionClaims, error) {
			calls++
			return nil, nil
		}),
	)

	_, err := validator.Validate("token")
	assert.True(t, accounts.IsTokenExpiredError(err))
	assert.Equal(t, 1, calls)
}

func TestMultiTokenValidatorAllMalformed(t *testing.T) {
	validator := accounts.NewMultiTokenValidator(malformedValidator(), malformedValidator())

	_, err := validator.Validate("token")
	assert.True(t, accounts.IsMalformedError(err))
}

func TestMultiTokenValidatorEmpty(t *testing.T) {
	validator := accounts.NewMultiTokenValidator()

	_, err := validator.Validate("token")
	assert.True(t, accounts.IsMalformedError(err))
}
