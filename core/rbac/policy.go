package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type Permission = string

const (
	PermIncidentsManage Permission = "incidents.manage"
	PermIncidentsReport Permission = "incidents.report"
)

// Role vocabulary of the deployment. The two admin roles may manage
// incident lifecycles; students only report.
const (
	RoleStudent   = "Estudiante"
	RoleStaff     = "Personal administrativo"
	RoleAuthority = "Autoridad"
)

const policyModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// Policy answers "may this role perform this action" questions.
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy builds the default role→permission policy.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	rules := [][]string{
		{RoleStaff, PermIncidentsManage},
		{RoleAuthority, PermIncidentsManage},
		{RoleStudent, PermIncidentsReport},
		{RoleStaff, PermIncidentsReport},
		{RoleAuthority, PermIncidentsReport},
	}
	for _, rule := range rules {
		if _, err := e.AddPolicy(rule[0], rule[1]); err != nil {
			return nil, fmt.Errorf("rbac policy rule: %w", err)
		}
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether the role carries the permission. Unknown roles
// carry nothing.
func (p *Policy) Allowed(role string, perm Permission) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	ok, err := p.enforcer.Enforce(role, string(perm))
	if err != nil {
		return false
	}
	return ok
}

// AdminRoles lists the roles privileged to manage incidents, in the order
// admin notifications fan out to them.
func AdminRoles() []string {
	return []string{RoleStaff, RoleAuthority}
}
