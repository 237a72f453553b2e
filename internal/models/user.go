package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role within their company.
type Role string

const (
	RoleOwner          Role = "owner"
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	// RolePrincipalAdmin is reserved for platform staff.
	RolePrincipalAdmin Role = "principal_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleProjectManager, RolePrincipalAdmin:
		return true
	}
	return false
}

// CanActAcrossTenants reports whether the role may operate outside its home
// company. Only platform staff hold it; route guards and the tenant resolver
// both dispatch on this instead of comparing role strings.
func (r Role) CanActAcrossTenants() bool {
	return r == RolePrincipalAdmin
}

// AuthProvider tags how an account authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)

// User represents a platform user. A user belongs to exactly one company,
// even when that company is the reserved platform tenant.
type User struct {
	ID              uuid.UUID    `json:"id"`
	CompanyID       uuid.UUID    `json:"company_id"`
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Email           string       `json:"email"`
	Username        string       `json:"username,omitempty"`
	PasswordHash    string       `json:"-"` // empty for social-only accounts
	AuthProvider    AuthProvider `json:"auth_provider"`
	// ProviderExternalID is the subject id at the social provider, empty
	// for local accounts.
	ProviderExternalID string    `json:"-"`
	IsPlatformOwner    bool      `json:"is_platform_owner"`
	Role               Role      `json:"role"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsPlatformPrivileged reports whether the user may enumerate and act as any
// tenant. Both conditions must hold: the flag only ever appears on users of
// the platform company, and the role gate keeps ordinary platform-company
// staff scoped to their own tenant.
func (u *User) IsPlatformPrivileged() bool {
	return u.IsPlatformOwner && u.Role.CanActAcrossTenants()
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID              uuid.UUID    `json:"id"`
	CompanyID       uuid.UUID    `json:"company_id"`
	FirstName       string       `json:"first_name"`
	LastName        string       `json:"last_name"`
	Email           string       `json:"email"`
	Username        string       `json:"username,omitempty"`
	AuthProvider    AuthProvider `json:"auth_provider"`
	IsPlatformOwner bool         `json:"is_platform_owner"`
	Role            Role         `json:"role"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:              u.ID,
		CompanyID:       u.CompanyID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Username:        u.Username,
		AuthProvider:    u.AuthProvider,
		IsPlatformOwner: u.IsPlatformOwner,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
	}
}
