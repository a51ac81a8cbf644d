package domain

// Role enumerates the fixed service desk roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCommercial Role = "commercial"
	RoleTechnician Role = "technician"
)

// Roles lists every role in seeding order.
var Roles = []Role{RoleAdmin, RoleCommercial, RoleTechnician}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCommercial, RoleTechnician:
		return true
	}
	return false
}
