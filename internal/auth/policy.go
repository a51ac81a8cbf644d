package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// Objects guarded by the policy.
const (
	ObjectUsers       = "users"
	ObjectTickets     = "tickets"
	ObjectAssignments = "assignments"
	ObjectHistory     = "history"
	ObjectAudit       = "audit"
)

// Actions checked against the policy.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionView   = "view"
)

// ScreenObject names the policy object for a desk screen.
func ScreenObject(screen string) string {
	return "screen:" + screen
}

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var defaultPolicies = [][]string{
	{string(domain.RoleAdmin), ObjectUsers, "*"},
	{string(domain.RoleAdmin), ObjectTickets, "*"},
	{string(domain.RoleAdmin), ObjectAssignments, "*"},
	{string(domain.RoleAdmin), ObjectHistory, "*"},
	{string(domain.RoleAdmin), ObjectAudit, "*"},
	{string(domain.RoleAdmin), "screen:*", ActionView},

	{string(domain.RoleCommercial), ObjectTickets, ActionRead},
	{string(domain.RoleCommercial), ObjectTickets, ActionWrite},
	{string(domain.RoleCommercial), ObjectAssignments, ActionRead},
	{string(domain.RoleCommercial), ObjectAssignments, ActionWrite},
	{string(domain.RoleCommercial), "screen:services", ActionView},

	{string(domain.RoleTechnician), ObjectTickets, ActionRead},
	{string(domain.RoleTechnician), ObjectTickets, ActionWrite},
	{string(domain.RoleTechnician), ObjectAssignments, ActionRead},
	{string(domain.RoleTechnician), "screen:technician_services", ActionView},
}

// Enforcer answers role/object/action questions from an in-memory casbin policy.
type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
}

// NewEnforcer loads the built-in role policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	return &Enforcer{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform act on obj. Errors deny.
func (e *Enforcer) Allowed(role domain.Role, obj, act string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enforcer.Enforce(string(role), obj, act)
	return err == nil && ok
}
