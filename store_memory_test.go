package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemoryAccount(t *testing.T, store *accounts.MemoryStore, email string) *accounts.Account {
	t.Helper()

	record, err := store.Insert(context.Background(), &accounts.Account{
		FirstName:    "Ann",
		LastName:     "Smith",
		Email:        email,
		PasswordHash: "$2a$14$placeholderhash",
	})
	require.NoError(t, err)
	return record
}

func TestMemoryStoreInsertDefaults(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	record := seedMemoryAccount(t, store, "Ann@Example.COM")

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, accounts.RoleCustomer, record.Role)
	assert.Equal(t, accounts.AccountStatusActive, record.Status)
	assert.Equal(t, "ann@example.com", record.Email)
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	seedMemoryAccount(t, store, "ann@example.com")

	_, err := store.Insert(context.Background(), &accounts.Account{
		Email:        "ANN@example.com",
		PasswordHash: "$2a$14$otherhash",
	})
	require.Error(t, err)
	assert.True(t, accounts.IsDuplicateEmail(err))
}

func TestMemoryStoreFindByEmailNormalizes(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	record := seedMemoryAccount(t, store, "ann@example.com")

	found, err := store.FindByEmail(context.Background(), "  ANN@EXAMPLE.com ")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	_, err = store.FindByEmail(context.Background(), "missing@example.com")
	require.Error(t, err)
	assert.True(t, accounts.IsAccountNotFound(err))
}

func TestMemoryStoreFindByID(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	record := seedMemoryAccount(t, store, "ann@example.com")

	found, err := store.FindByID(context.Background(), record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, record.Email, found.Email)

	_, err = store.FindByID(context.Background(), "nope")
	assert.True(t, accounts.IsAccountNotFound(err))
}

func TestMemoryStoreUpdateProfile(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	record := seedMemoryAccount(t, store, "ann@example.com")

	updated, err := store.UpdateProfile(context.Background(), record.ID.String(), accounts.ProfileFields{
		FirstName: "Anne",
		LastName:  "Smythe",
		Email:     "anne@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anne", updated.FirstName)
	assert.Equal(t, "anne@example.com", updated.Email)

	// old email is released, new one resolves
	_, err = store.FindByEmail(context.Background(), "ann@example.com")
	assert.True(t, accounts.IsAccountNotFound(err))

	found, err := store.FindByEmail(context.Background(), "anne@example.com")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
}

func TestMemoryStoreUpdateProfileConflicts(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	ann := seedMemoryAccount(t, store, "ann@example.com")
	seedMemoryAccount(t, store, "bob@example.com")

	_, err := store.UpdateProfile(context.Background(), ann.ID.String(), accounts.ProfileFields{
		FirstName: "Ann",
		LastName:  "Smith",
		Email:     "bob@example.com",
	})
	require.Error(t, err)
	assert.True(t, accounts.IsDuplicateEmail(err))

	// keeping your own email is not a conflict
	_, err = store.UpdateProfile(context.Background(), ann.ID.String(), accounts.ProfileFields{
		FirstName: "Ann",
		LastName:  "Smith",
		Email:     "ANN@example.com",
	})
	assert.NoError(t, err)
}

func TestMemoryStoreUpdatePasswordHash(t *testing.T) {
	t.Parallel()

	store := accounts.NewMemoryStore()
	record := seedMemoryAccount(t, store, "ann@example.com")

	require.NoError(t, store.UpdatePasswordHash(context.Background(), record.ID.String(), "$2a$14$newhash"))

	found, err := store.FindByID(context.Background(), record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "$2a$14$newhash", found.PasswordHash)

	err = store.UpdatePasswordHash(context.Background(), "missing", "$2a$14$newhash")
	assert.True(t, accounts.IsAccountNotFound(err))
}
