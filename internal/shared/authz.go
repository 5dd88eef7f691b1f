package shared

// Role is a coarse permission grouping. There is no permission matrix;
// authorization is plain role equality checks.
type Role string

const (
	// RoleAdmin can perform every operation.
	RoleAdmin Role = "ADMIN"
	// RoleStateManager manages stock and orders for regional hubs.
	RoleStateManager Role = "STATE_MANAGER"
	// RoleSalesAgent captures orders and leads; may only reschedule deliveries.
	RoleSalesAgent Role = "SALES_AGENT"
)

// Valid reports whether the role is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStateManager, RoleSalesAgent:
		return true
	default:
		return false
	}
}

// Elevated reports whether the role may perform privileged order and stock
// operations.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleStateManager
}

// Actor identifies the authenticated user for attribution and role checks.
type Actor struct {
	ID   int64
	Name string
	Role Role
}
