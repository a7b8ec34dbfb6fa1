package domain

// Role is the canonical authorization category used to gate navigation.
// It is derived from UserRecord.AccountType and never persisted.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleSeeker   Role = "seeker"
	RoleLandlord Role = "landlord"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Raw account types as sent by the marketplace backend.
const (
	AccountTypeAdmin           = "admin"
	AccountTypeAgent           = "agent"
	AccountTypeLandlord        = "landlord"
	AccountTypeServiceProvider = "service_provider"
	AccountTypeHomeSeeker      = "home_seeker"
)

var accountTypeRoles = map[string]Role{
	AccountTypeAdmin:           RoleAdmin,
	AccountTypeAgent:           RoleAdmin,
	AccountTypeLandlord:        RoleLandlord,
	AccountTypeServiceProvider: RoleProvider,
	AccountTypeHomeSeeker:      RoleSeeker,
}

// ResolveRole maps a raw account type to a Role. It is total: anything
// unmapped, including the empty string, resolves to RoleGuest.
func ResolveRole(accountType string) Role {
	if role, ok := accountTypeRoles[accountType]; ok {
		return role
	}
	return RoleGuest
}

// ParseRole converts a canonical role name back into a Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleGuest, RoleSeeker, RoleLandlord, RoleProvider, RoleAdmin:
		return r, true
	}
	return "", false
}

// Roles lists every role in declaration order.
func Roles() []Role {
	return []Role{RoleGuest, RoleSeeker, RoleLandlord, RoleProvider, RoleAdmin}
}

// Authenticated reports whether r is anything other than Guest.
func (r Role) Authenticated() bool {
	return r != RoleGuest && r != ""
}

func (r Role) String() string { return string(r) }
