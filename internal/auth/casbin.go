package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
)

// Subjects used in route policies.
const (
	SubjectAnonymous = "anonymous"
	SubjectAdmin     = "admin"
)

// routeModel is an RBAC model over (subject, path, method) with keyMatch2 paths.
const routeModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && r.act == p.act
`

// NewEnforcer creates a Casbin enforcer for API routes. Policies live in
// memory only; they are static and re-seeded on every start.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(routeModel)
	if err != nil {
		return nil, err
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	// keyMatch2 lets policies use chi-style ":param" segments,
	// e.g. matching "/api/articles/:id" to "/api/articles/hello-world".
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	return enforcer, nil
}
