package model

import "time"

// Role names stored in identities.role.
const (
	RoleOwner    = "OWNER"
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// Metadata keys written by the provisioning services.
const (
	MetaAdminMarker    = "is_admin"
	MetaRole           = "role"
	MetaName           = "name"
	MetaOrganizationID = "organization_id"
	MetaPermissions    = "permissions"
	MetaAutoApproved   = "auto_approved"
	MetaInvitedBy      = "invited_by"
)

// Identity represents a person able to authenticate, as stored in the
// `identities` table.  The credential lives in PasswordHash and is only
// touched by the auth provider.
//
// Fields:
//
//	ID               – primary key (UUID string).
//	Email            – unique, normalized lower-case address.
//	PasswordHash     – bcrypt hash; empty for pending invitations.
//	Name             – display name.
//	Phone            – normalized phone number.
//	Role             – one of the Role* constants.
//	OrganizationID   – owning organization, empty until provisioned.
//	IsActive         – account may sign in.
//	IsApproved       – approved by the organization owner.
//	EmailConfirmedAt – nil until the address is confirmed.
//	Metadata         – free-form provisioning hints.
type Identity struct {
	ID               string
	Email            string
	PasswordHash     string
	Name             string
	Phone            string
	Role             string
	OrganizationID   string
	IsActive         bool
	IsApproved       bool
	EmailConfirmedAt *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidRole reports whether r is a known role name.
func ValidRole(r string) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// MergeMetadata returns a copy of base with every key of extra applied.
func MergeMetadata(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
	ID         uint64
	IdentityID string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}
