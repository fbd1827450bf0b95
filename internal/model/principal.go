package model

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleOfftaker   Role = "offtaker"
	RoleInvestor   Role = "investor"
)

// Principal is the authenticated caller injected by the request layer.
type Principal struct {
	UserID   int64
	Role     Role
	Language string
}

func (p Principal) IsPrivileged() bool {
	return p.Role == RoleSuperAdmin || p.Role == RoleAdmin
}

func (p Principal) IsOfftaker() bool {
	return p.Role == RoleOfftaker
}

func (p Principal) IsInvestor() bool {
	return p.Role == RoleInvestor
}
