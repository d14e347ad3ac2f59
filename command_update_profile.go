package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UpdateProfileMessage struct {
	AccountID string `json:"account_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (e UpdateProfileMessage) Type() string { return "account.profile.update" }

// UpdateProfileHandler mutates identifying fields of an existing account.
// Email uniqueness excludes the account's own row, so re-submitting an
// unchanged email is not a conflict. On success callers must re-issue the
// session token since the claims mirror these fields.
type UpdateProfileHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit profile update events.
func (h *UpdateProfileHandler) WithActivitySink(sink ActivitySink) *UpdateProfileHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) (*Account, error) {
	if err := ValidateProfileUpdate(event); err != nil {
		return nil, err
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := NormalizeEmail(event.Email)

		// a different account owning the email is a conflict; the same
		// account keeping its email is not
		if existing, err := h.repo.Accounts().FindByEmailTx(ctx, tx, email); err == nil {
			if existing.ID.String() != event.AccountID {
				return ErrDuplicateEmail
			}
		} else if !IsAccountNotFound(err) {
			return err
		}

		fields := ProfileFields{
			FirstName: event.FirstName,
			LastName:  event.LastName,
			Email:     email,
		}

		var err error
		if account, err = h.repo.Accounts().UpdateProfileTx(ctx, tx, event.AccountID, fields); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	h.recordActivity(ctx, account)

	return account, nil
}

func (h *UpdateProfileHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventProfileUpdated,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("failed to record profile update activity: %v", err)
	}
}

// ValidateProfileUpdate checks the update payload against the field rules.
func ValidateProfileUpdate(event UpdateProfileMessage) error {
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

	if len(errs) > 0 {
		return validationError(errs)
	}

	return nil
}
