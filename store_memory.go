package accounts

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a mutex guarded CredentialStore for tests and embedding.
// Uniqueness on the normalized email is enforced under the same lock as the
// insert, so concurrent registrations cannot race past the check.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    map[string]*Account{},
		byEmail: map[string]string{},
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *MemoryStore) Insert(ctx context.Context, account *Account) (*Account, error) {
	if account == nil {
		return nil, ErrStorage
	}

	record := cloneAccount(account)
	prepareAccountDefaults(record)
	record.Email = NormalizeEmail(record.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[record.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	s.byID[record.ID.String()] = record
	s.byEmail[record.Email] = record.ID.String()

	return cloneAccount(record), nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*Account, error) {
	email := NormalizeEmail(fields.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	if email != account.Email {
		if owner, exists := s.byEmail[email]; exists && owner != id {
			return nil, ErrDuplicateEmail
		}
		delete(s.byEmail, account.Email)
		s.byEmail[email] = id
	}

	account.FirstName = fields.FirstName
	account.LastName = fields.LastName
	account.Email = email

	return cloneAccount(account), nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}

	account.PasswordHash = passwordHash
	return nil
}

func cloneAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	clone := *account
	return &clone
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleCustomer
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
