package accounts

import "context"

// CredentialStore is the durable account persistence boundary. Lookups that
// match nothing return ErrAccountNotFound so zero affected rows stay distinct
// from genuine failures. Insert treats a normalized email conflict as the
// authoritative ErrDuplicateEmail signal; adapters back it with a store
// enforced uniqueness constraint, never with a pre-check alone.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Insert(ctx context.Context, account *Account) (*Account, error)
	UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}
