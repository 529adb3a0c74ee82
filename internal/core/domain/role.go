package domain

// Role is the closed set of privilege tiers an account can hold.
type Role string

const (
	// RoleNone is the unset sentinel. It is never a valid role for a
	// constructed account.
	RoleNone       Role = "none"
	RoleCashier    Role = "cashier"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	// RoleSuperAdmin is provisioned once at system bootstrap and can never
	// be assigned through ChangeRole.
	RoleSuperAdmin Role = "super-admin"
)

// ValidRoles returns every role an account may legitimately hold.
func ValidRoles() []Role {
	return []Role{RoleCashier, RoleSupervisor, RoleManager, RoleAdmin, RoleSuperAdmin}
}

// AssignableRoles returns the roles that can be granted after bootstrap.
// Super-admin is excluded: it is provisioned once at system setup and never
// through registration or a role change.
func AssignableRoles() []Role {
	return []Role{RoleCashier, RoleSupervisor, RoleManager, RoleAdmin}
}

// Valid reports whether r is a member of the defined role set (the RoleNone
// sentinel is not).
func (r Role) Valid() bool {
	for _, v := range ValidRoles() {
		if r == v {
			return true
		}
	}
	return false
}

// Assignable reports whether r can be granted to an account.
func (r Role) Assignable() bool {
	for _, v := range AssignableRoles() {
		if r == v {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
