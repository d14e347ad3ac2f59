package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ChangePasswordMessage struct {
	AccountID       string `json:"account_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (e ChangePasswordMessage) Type() string { return "account.password.change" }

// ChangePasswordHandler replaces an account's password hash after
// verifying the current password.
type ChangePasswordHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewChangePasswordHandler creates a handler with sane defaults.
func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password change events.
func (h *ChangePasswordHandler) WithActivitySink(sink ActivitySink) *ChangePasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) (*Account, error) {
	if err := ValidatePassword(event.NewPassword); err != nil {
		return nil, validationError(map[string]error{"new_password": err})
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := h.repo.Accounts().FindByID(ctx, event.AccountID)
		if err != nil {
			return err
		}

		if err := ComparePasswordAndHash(event.CurrentPassword, current.PasswordHash); err != nil {
			return ErrInvalidCredentials
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if err := h.repo.Accounts().UpdatePasswordHashTx(ctx, tx, event.AccountID, hash); err != nil {
			return err
		}

		account = current
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	h.recordActivity(ctx, account)

	return account, nil
}

func (h *ChangePasswordHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventPasswordChanged,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Error("failed to record password change activity: %v", err)
	}
}
