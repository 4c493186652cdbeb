package model

import (
	"time"
)

// Role is the authorization role of a portal account
type Role string

// Known roles
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is one of the defined constants.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// SubscriptionTier is the subscription level of an account. Tiers are stored
// and reported but never enforced.
type SubscriptionTier string

// Known subscription tiers
const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
	TierVIP     SubscriptionTier = "vip"
)

// AllTiers lists every known SubscriptionTier as strings
var AllTiers = []string{
	string(TierFree),
	string(TierPremium),
	string(TierVIP),
}

// Valid reports whether the tier is one of the defined constants.
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierVIP:
		return true
	default:
		return false
	}
}

// User is a portal account. Accounts are never deleted, only disabled.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Username is the case-sensitive login name
	Username string `gorm:"uniqueIndex;size:191;not null" json:"username"`
	// PasswordHash stores a PHC-formatted argon2id hash, or a bcrypt hash for
	// imported accounts that did not log in yet
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	// Email is unique when present; nil is stored as NULL so several accounts
	// without email do not collide
	Email *string `gorm:"uniqueIndex;size:191" json:"email"`
	Role  Role    `gorm:"size:16;not null;default:user" json:"role"`

	SubscriptionTier      SubscriptionTier `gorm:"size:16;not null;default:free" json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time       `json:"subscription_expires_at,omitempty"`

	// Disabled allows soft-disable of a user without deletion
	Disabled    bool       `json:"disabled"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Identity returns the sanitized snapshot of the user that is kept in a
// session
func (u User) Identity() Identity {
	id := Identity{
		ID:               u.ID,
		Username:         u.Username,
		Role:             u.Role,
		Name:             u.Name,
		SubscriptionTier: u.SubscriptionTier,
	}
	if u.Email != nil {
		id.Email = *u.Email
	}
	return id
}

// Identity is the minimal, sanitized view of a user that is copied into a
// session at login. It is not refreshed when the underlying user changes.
type Identity struct {
	ID               uint             `json:"id" msgpack:"id"`
	Username         string           `json:"username" msgpack:"username"`
	Role             Role             `json:"role" msgpack:"role"`
	Name             string           `json:"name,omitempty" msgpack:"name"`
	Email            string           `json:"email,omitempty" msgpack:"email"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier,omitempty" msgpack:"tier"`
}

// IsAdmin reports whether the identity carries the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// NewUser holds the input for creating a user
type NewUser struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     Role
}

// UserUpdate holds optional changes to a user; nil fields are left untouched
type UserUpdate struct {
	Name                  *string           `json:"name,omitempty" structs:"name,omitempty"`
	Email                 *string           `json:"email,omitempty" structs:"-"`
	Password              *string           `json:"password,omitempty" structs:"-"`
	Role                  *Role             `json:"role,omitempty" structs:"role,omitempty"`
	SubscriptionTier      *SubscriptionTier `json:"subscription_tier,omitempty" structs:"subscription_tier,omitempty"`
	SubscriptionExpiresAt *time.Time        `json:"subscription_expires_at,omitempty" structs:"subscription_expires_at,omitempty,omitnested"`
	Disabled              *bool             `json:"disabled,omitempty" structs:"disabled,omitempty"`
}

// UsersStore abstracts the credential store
type UsersStore interface {
	// Count returns the number of users present in the store
	Count() (int64, error)
	// CountByRole returns the number of users with the given role
	CountByRole(role Role) (int64, error)
	// List returns all users (without password hashes)
	List() ([]User, error)
	// Get returns a user by id
	Get(id uint) (*User, error)
	// GetByUsername returns a user by username
	GetByUsername(username string) (*User, error)
	// Create creates a user; the implementation must hash the password.
	// A username or email collision yields an AlreadyExistsError.
	Create(u NewUser) (*User, error)
	// Update applies the non-nil fields of the passed UserUpdate
	Update(id uint, update UserUpdate) (*User, error)
	// Authenticate checks a username/password combo. It returns (nil, nil)
	// for an unknown username, a wrong password, or a disabled user; an error
	// is only returned on infrastructure failure.
	Authenticate(username, password string) (*User, error)
}
