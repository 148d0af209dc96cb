// Package authz decides whether a signed-in identity may perform an action
// on a resource. Decisions come from a static role-to-action matrix loaded
// once at startup; a privileged identity bypasses the matrix entirely.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

//go:embed policy.csv
var defaultPolicyContent string

// Identity is the signed-in actor as seen by the evaluator: its role name
// and whether it is privileged (superuser).
type Identity struct {
	Role       string
	Privileged bool
}

// Evaluator answers (identity, resource, action) queries. It performs no
// I/O after construction and is safe for concurrent use.
type Evaluator struct {
	enforcer *casbin.Enforcer
}

// NewEvaluator builds an Evaluator over the embedded default permission
// matrix.
func NewEvaluator() (*Evaluator, error) {
	return NewEvaluatorFromPolicy(defaultPolicyContent)
}

// NewEvaluatorFromPolicy builds an Evaluator from a CSV policy in casbin
// form ("p, role, resource, action" per line). The matrix is data, not
// code, so a server-sourced policy can replace the embedded one without
// touching the evaluation logic.
func NewEvaluatorFromPolicy(policyCSV string) (*Evaluator, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, policyCSV); err != nil {
		return nil, err
	}
	return &Evaluator{enforcer: enforcer}, nil
}

// Can reports whether the identity may perform action on resource.
// Privileged identities are allowed unconditionally. Unknown resources or
// actions, and any enforcer error, deny (fail closed).
//
// Can gates both rendering an action control and, independently, the
// dispatch itself; the rendering-time check is an optimization, not the
// authority.
func (e *Evaluator) Can(identity Identity, resource, action string) bool {
	if identity.Privileged {
		return true
	}
	allowed, err := e.enforcer.Enforce(identity.Role, resource, action)
	if err != nil {
		return false
	}
	return allowed
}

func loadPolicy(enforcer *casbin.Enforcer, policyCSV string) error {
	for _, line := range strings.Split(policyCSV, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 || strings.TrimSpace(fields[0]) != "p" {
			return fmt.Errorf("malformed policy line: %q", line)
		}
		role := strings.TrimSpace(fields[1])
		resource := strings.TrimSpace(fields[2])
		action := strings.TrimSpace(fields[3])
		if _, err := enforcer.AddPolicy(role, resource, action); err != nil {
			return fmt.Errorf("add policy %q: %w", line, err)
		}
	}
	return nil
}
