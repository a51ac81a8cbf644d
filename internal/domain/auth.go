package domain

// Identity is the role-tagged result of a successful authentication.
type Identity struct {
	UserID   int64
	FullName string
	Username string
	Role     Role
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
