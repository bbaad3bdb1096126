package domain

// Role is the administrative role carried by an authenticated actor.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Elevated reports whether the role may mutate resources it does not own.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID   string
	Role Role
}

// CanMutate is the single owner-or-elevated rule for update and delete.
func CanMutate(actor *Actor, resource *Resource) bool {
	if actor == nil || resource == nil || actor.ID == "" {
		return false
	}
	return actor.ID == resource.OwnerID || actor.Role.Elevated()
}
