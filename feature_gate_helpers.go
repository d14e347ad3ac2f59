package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-featuregate/gate/guard"
)

// FeatureAccountsRegistration gates self service registration. Stores can
// flip it off during maintenance or invite-only launches.
const FeatureAccountsRegistration = "accounts.registration"

// ErrRegistrationDisabled is returned when the registration gate is closed.
var ErrRegistrationDisabled = errors.New("registration is currently disabled", errors.CategoryAuthz).
	WithTextCode("REGISTRATION_DISABLED").
	WithCode(errors.CodeForbidden)

func normalizeFeatureGateError(err error) error {
	if err == nil {
		return nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return err
	}

	return errors.Wrap(err, errors.CategoryAuthz, "Feature gate check failed").
		WithCode(errors.CodeForbidden)
}

func requireFeatureGate(ctx context.Context, featureGate gate.FeatureGate, key string, disabledErr error) error {
	return guard.Require(ctx, featureGate, key,
		guard.WithDisabledError(disabledErr),
		guard.WithErrorMapper(normalizeFeatureGateError),
	)
}

func requireRegistrationGate(ctx context.Context, featureGate gate.FeatureGate) error {
	return requireFeatureGate(ctx, featureGate, FeatureAccountsRegistration, ErrRegistrationDisabled)
}
