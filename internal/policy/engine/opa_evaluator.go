package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "github.com/MatheusAFD/mono-repo-auth/internal/user/domain"
)

const (
	allowQuery     = "data.monoauth.access.allow"
	revocableQuery = "data.monoauth.access.revocable"
)

// DefaultPolicy grants each role its statements and marks backoffice sessions as protected
// from administrative revocation.
const DefaultPolicy = `package monoauth.access

default allow := false

default revocable := false

grants := {
	"portal": {"portal": ["access"]},
	"backoffice": {
		"backoffice": ["access"],
		"portal": ["access"],
	},
}

protected_roles := {"backoffice"}

allow if {
	some action in grants[input.role][input.resource]
	action == input.action
}

revocable if {
	not protected_roles[input.target_role]
}
`

// OPAEvaluator evaluates the access policy with an embedded OPA engine.
// Queries are compiled once at construction.
type OPAEvaluator struct {
	allow     rego.PreparedEvalQuery
	revocable rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (DefaultPolicy when empty) and prepares its queries.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"access.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	allow, err := rego.New(rego.Query(allowQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", allowQuery, err)
	}
	revocable, err := rego.New(rego.Query(revocableQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", revocableQuery, err)
	}
	return &OPAEvaluator{allow: allow, revocable: revocable}, nil
}

// NewOPAEvaluatorFromFile reads a Rego policy from path; an empty path selects DefaultPolicy.
func NewOPAEvaluatorFromFile(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read access policy: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

func (e *OPAEvaluator) Allow(ctx context.Context, role userdomain.Role, resource, action string) (bool, error) {
	return evalBool(ctx, e.allow, map[string]any{
		"role":     string(role),
		"resource": resource,
		"action":   action,
	})
}

func (e *OPAEvaluator) CanRevoke(ctx context.Context, targetRole userdomain.Role) (bool, error) {
	return evalBool(ctx, e.revocable, map[string]any{
		"target_role": string(targetRole),
	})
}

// HealthCheck verifies that the prepared policy still evaluates: backoffice must reach the backoffice app.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.Allow(ctx, userdomain.RoleBackoffice, "backoffice", "access")
	if err != nil {
		return fmt.Errorf("eval access policy: %w", err)
	}
	if !ok {
		return fmt.Errorf("access policy denies backoffice:access for backoffice role")
	}
	return nil
}

func evalBool(ctx context.Context, q rego.PreparedEvalQuery, input map[string]any) (bool, error) {
	rs, err := q.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return v, nil
}
