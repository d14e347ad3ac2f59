package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage carries the public registration form fields.
// Role is absent on purpose: accounts are always created as customers
// and elevation happens through staff tooling, never through this flow.
type RegisterAccountMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler creates a new account with a hashed password.
// The store's unique constraint on email is the authority for duplicates;
// the pre-insert lookup only short-circuits the common case.
type RegisterAccountHandler struct {
	repo        RepositoryManager
	activity    ActivitySink
	logger      Logger
	featureGate gate.FeatureGate
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithFeatureGate guards registration behind the accounts.registration gate.
func (h *RegisterAccountHandler) WithFeatureGate(featureGate gate.FeatureGate) *RegisterAccountHandler {
	h.featureGate = featureGate
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	if h.featureGate != nil {
		if err := requireRegistrationGate(ctx, h.featureGate); err != nil {
			return nil, err
		}
	}

	if err := ValidateRegistration(event); err != nil {
		return nil, err
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := NormalizeEmail(event.Email)

		if _, err := h.repo.Accounts().FindByEmailTx(ctx, tx, email); err == nil {
			return ErrDuplicateEmail
		} else if !IsAccountNotFound(err) {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.PasswordHash = hash
		account.Email = email
		account.FirstName = event.FirstName
		account.LastName = event.LastName
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().InsertTx(ctx, tx, account); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	h.recordActivity(ctx, account)

	return account, nil
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventRegistered,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"role": account.Role,
		},
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("failed to record registration activity: %v", err)
	}
}

// ValidateRegistration checks the registration payload against the field
// rules before any store access happens.
func ValidateRegistration(event RegisterAccountMessage) error {
	errs := map[string]error{}

	if err := ValidateName(event.FirstName); err != nil {
		errs["first_name"] = err
	}
	if err := ValidateName(event.LastName); err != nil {
		errs["last_name"] = err
	}
	if err := ValidateEmail(event.Email); err != nil {
		errs["email"] = err
	}
	if err := ValidatePassword(event.Password); err != nil {
		errs["password"] = err
	}

	if len(errs) > 0 {
		return validationError(errs)
	}

	return nil
}
