package accounts

import (
	"strings"
	"time"

	"github.com/goliatone/go-persistence-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's permission tier
type AccountRole = string

const (
	// RoleCustomer is the default tier assigned by the store at registration
	RoleCustomer AccountRole = "customer"
	// RoleEmployee is an elevated tier (inventory management area)
	RoleEmployee AccountRole = "employee"
	// RoleAdmin is the highest tier
	RoleAdmin AccountRole = "admin"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus = string

const (
	// AccountStatusActive accounts can log in. Registration creates accounts
	// directly in this state.
	AccountStatusActive AccountStatus = "active"
	// AccountStatusSuspended accounts are temporarily locked out.
	AccountStatusSuspended AccountStatus = "suspended"
	// AccountStatusDisabled accounts are locked out until staff re-enables them.
	AccountStatusDisabled AccountStatus = "disabled"
	// AccountStatusArchived is terminal.
	AccountStatusArchived AccountStatus = "archived"
)

// Account is the identity record. The password hash never leaves the store
// boundary: it is excluded from JSON and from session claims.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          AccountRole   `bun:"account_role,notnull" json:"account_role,omitempty"`
	Status        AccountStatus `bun:"status,notnull,default:'active'" json:"status,omitempty"`
	FirstName     string        `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string        `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string        `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string        `bun:"password_hash,notnull" json:"-"`
	SuspendedAt   *time.Time    `bun:"suspended_at,nullzero" json:"suspended_at,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the default status on records created before the
// lifecycle column existed.
func (a *Account) EnsureStatus() {
	if a.Status == "" {
		a.Status = AccountStatusActive
	}
}

// CanLogin reports whether the account's lifecycle state admits new sessions.
func (a *Account) CanLogin() bool {
	a.EnsureStatus()
	return a.Status == AccountStatusActive
}

func init() {
	persistence.RegisterModel((*Account)(nil))
}

// NormalizeEmail applies the canonical form used for comparison and storage.
// Uniqueness is always checked against the normalized value.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileFields are the account attributes an owner may change through the
// update flow. Role is deliberately absent: it is store managed.
type ProfileFields struct {
	FirstName string
	LastName  string
	Email     string
}
