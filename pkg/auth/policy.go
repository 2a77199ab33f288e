package auth

import (
	"errors"
	"fmt"

	"github.com/casbin/casbin"
	"github.com/casbin/casbin/model"
	"github.com/casbin/casbin/persist"
)

// RoleAnonymous is the subject used for requests without a session.
const RoleAnonymous = "anonymous"

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var routePolicy = []string{
	"g, owner, anonymous",
	"g, mto, anonymous",

	"p, anonymous, /manage/health, GET",
	"p, anonymous, /api/homestays, GET",
	"p, anonymous, /api/register-tourist, POST",
	"p, anonymous, /api/reserve-room, POST",
	"p, anonymous, /login, POST",
	"p, anonymous, /logout, POST",

	"p, owner, /api/booking, POST",
	"p, owner, /api/calendar-data, GET",
	"p, owner, /api/my-tourist-chart-data, GET",
	"p, owner, /api/my-tourists, GET",
	"p, owner, /api/room, POST",
	"p, owner, /api/rooms, GET",
	"p, owner, /api/update-room, POST",
	"p, owner, /api/delete-room, POST",
	"p, owner, /api/get_homestay_features, GET",
	"p, owner, /api/update_homestay_features, POST",
	"p, owner, /api/change-password, POST",
	"p, owner, /register-tourist, POST",
	"p, owner, /api/edit_user, POST",

	"p, mto, /register-tourist, POST",
	"p, mto, /api/tourist-chart-data, GET",
	"p, mto, /api/tourist-list, GET",
	"p, mto, /api/tourist-search, GET",
	"p, mto, /api/add_homestay_user, POST",
	"p, mto, /api/edit_homestay_user, POST",
	"p, mto, /api/homestay_users, GET",
	"p, mto, /api/homestay-search, GET",
	"p, mto, /api/change-password, POST",
	"p, mto, /api/edit_user, POST",
	"p, mto, /api/admin_log_users, GET",
}

// policyAdapter serves the built-in route policy to the enforcer.
type policyAdapter struct {
	lines []string
}

func (a *policyAdapter) LoadPolicy(m model.Model) error {
	for _, line := range a.lines {
		persist.LoadPolicyLine(line, m)
	}
	return nil
}

var errReadOnlyPolicy = errors.New("route policy is read-only")

func (a *policyAdapter) SavePolicy(model.Model) error { return errReadOnlyPolicy }

func (a *policyAdapter) AddPolicy(string, string, []string) error { return errReadOnlyPolicy }

func (a *policyAdapter) RemovePolicy(string, string, []string) error { return errReadOnlyPolicy }

func (a *policyAdapter) RemoveFilteredPolicy(string, string, int, ...string) error {
	return errReadOnlyPolicy
}

// NewEnforcer builds the role-based route policy.
func NewEnforcer() (*casbin.Enforcer, error) {
	e, err := casbin.NewEnforcerSafe(casbin.NewModel(policyModel), &policyAdapter{lines: routePolicy})
	if err != nil {
		return nil, fmt.Errorf("load route policy: %w", err)
	}
	e.EnableLog(false)
	return e, nil
}

// Allowed reports whether role may call method on path.
func Allowed(e *casbin.Enforcer, role, path, method string) (bool, error) {
	if role == "" {
		role = RoleAnonymous
	}
	return e.EnforceSafe(role, path, method)
}
