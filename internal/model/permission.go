package model

import "time"

// Permission modules of the admin dashboard.
const (
	ModuleBookings   = "bookings"
	ModuleCustomers  = "customers"
	ModuleServices   = "services"
	ModuleStaff      = "staff"
	ModuleSettings   = "settings"
	ModuleFinancials = "financials"
)

// Modules lists every module in display order.
var Modules = []string{
	ModuleBookings, ModuleCustomers, ModuleServices, ModuleStaff, ModuleSettings, ModuleFinancials,
}

// Actions on a module.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// ModulePermission is the set of actions granted on one module.
type ModulePermission struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Allows reports whether action is granted.
func (p ModulePermission) Allows(action string) bool {
	switch action {
	case ActionView:
		return p.View
	case ActionCreate:
		return p.Create
	case ActionEdit:
		return p.Edit
	case ActionDelete:
		return p.Delete
	}
	return false
}

// Permissions maps module name to its granted actions.
type Permissions map[string]ModulePermission

// Allows reports whether action is granted on module. Unknown modules
// grant nothing.
func (p Permissions) Allows(module, action string) bool {
	mp, ok := p[module]
	return ok && mp.Allows(action)
}

// FullAccess is the owner grant: everything on the operational modules,
// view+edit on settings and view-only on financials.
func FullAccess() Permissions {
	all := ModulePermission{View: true, Create: true, Edit: true, Delete: true}
	return Permissions{
		ModuleBookings:   all,
		ModuleCustomers:  all,
		ModuleServices:   all,
		ModuleStaff:      all,
		ModuleSettings:   {View: true, Edit: true},
		ModuleFinancials: {View: true},
	}
}

// NoAccess returns a profile with every module present and nothing granted.
func NoAccess() Permissions {
	out := make(Permissions, len(Modules))
	for _, m := range Modules {
		out[m] = ModulePermission{}
	}
	return out
}

// PermissionProfile is the per-identity row in `permission_profiles`.
type PermissionProfile struct {
	IdentityID     string
	OrganizationID string
	Permissions    Permissions
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
