package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var UpdateAccountProfileSQL = `UPDATE "accounts" AS "acc"
SET
	"first_name" = ?,
	"last_name" = ?,
	"email" = ?,
	"updated_at" = current_timestamp
WHERE
	"acc"."id" = ?
RETURNING *;`

var UpdateAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"updated_at" = current_timestamp
WHERE
	"acc"."id" = ?
RETURNING *;`

var UpdateAccountStatusSQL = `UPDATE "accounts" AS "acc"
SET
	"status" = ?,
	"updated_at" = current_timestamp
WHERE
	"acc"."id" = ?
RETURNING *;`

var UpdateAccountStatusSuspendedSQL = `UPDATE "accounts" AS "acc"
SET
	"status" = ?,
	"suspended_at" = ?,
	"updated_at" = current_timestamp
WHERE
	"acc"."id" = ?
RETURNING *;`

// Accounts is the bun backed credential store. It layers the Tx variants the
// orchestrator commands need on top of the CredentialStore boundary.
type Accounts interface {
	repository.Repository[*Account]
	CredentialStore

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	InsertTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id string, fields ProfileFields) (*Account, error)
	UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id, passwordHash string) error
	UpdateStatus(ctx context.Context, id string, status AccountStatus, opts ...StatusUpdateOption) (*Account, error)
}

// StatusUpdateOption customizes lifecycle status persistence.
type StatusUpdateOption func(*statusUpdate)

type statusUpdate struct {
	suspendedAt    *time.Time
	setSuspendedAt bool
}

// WithSuspendedAt records (or clears, when nil) the suspension timestamp
// alongside the status change.
func WithSuspendedAt(t *time.Time) StatusUpdateOption {
	return func(u *statusUpdate) {
		u.suspendedAt = t
		u.setSuspendedAt = true
	}
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ CredentialStore                 = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accountsRepo) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, storageError(err)
	}

	return record, nil
}

func (a *accountsRepo) FindByID(ctx context.Context, id string) (*Account, error) {
	record, err := a.Repository.GetByIdentifierTx(ctx, a.db, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, storageError(err)
	}
	return record, nil
}

func (a *accountsRepo) Insert(ctx context.Context, account *Account) (*Account, error) {
	return a.InsertTx(ctx, a.db, account)
}

func (a *accountsRepo) InsertTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)
	account.Email = NormalizeEmail(account.Email)

	record, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError(err)
	}

	return record, nil
}

func (a *accountsRepo) UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*Account, error) {
	return a.UpdateProfileTx(ctx, a.db, id, fields)
}

func (a *accountsRepo) UpdateProfileTx(ctx context.Context, tx bun.IDB, id string, fields ProfileFields) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, UpdateAccountProfileSQL,
		fields.FirstName,
		fields.LastName,
		NormalizeEmail(fields.Email),
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError(err)
	}

	if len(res) == 0 {
		return nil, ErrAccountNotFound
	}

	return res[0], nil
}

func (a *accountsRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return a.UpdatePasswordHashTx(ctx, a.db, id, passwordHash)
}

func (a *accountsRepo) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, UpdateAccountPasswordSQL, passwordHash, id)
	if err != nil {
		return storageError(err)
	}

	if len(res) == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (a *accountsRepo) UpdateStatus(ctx context.Context, id string, status AccountStatus, opts ...StatusUpdateOption) (*Account, error) {
	update := &statusUpdate{}
	for _, opt := range opts {
		if opt != nil {
			opt(update)
		}
	}

	var res []*Account
	var err error
	if update.setSuspendedAt {
		res, err = a.Repository.RawTx(ctx, a.db, UpdateAccountStatusSuspendedSQL, status, update.suspendedAt, id)
	} else {
		res, err = a.Repository.RawTx(ctx, a.db, UpdateAccountStatusSQL, status, id)
	}
	if err != nil {
		return nil, storageError(err)
	}

	if len(res) == 0 {
		return nil, ErrAccountNotFound
	}

	return res[0], nil
}

// isUniqueViolation matches the duplicate key errors raised by the dialects
// the store runs against (sqlite and postgres).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func storageError(err error) error {
	clone := ErrStorage.Clone()
	if clone == nil {
		return ErrStorage
	}
	clone.Source = err
	return clone
}
