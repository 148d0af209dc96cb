package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobrain/console/pkg/authz"
)

func newEvaluator(t *testing.T) *authz.Evaluator {
	t.Helper()
	evaluator, err := authz.NewEvaluator()
	require.NoError(t, err)
	return evaluator
}

func TestCanFollowsMatrix(t *testing.T) {
	evaluator := newEvaluator(t)

	cases := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		{"readonly", authz.ResourceClinics, authz.ActionView, true},
		{"readonly", authz.ResourceClinics, authz.ActionCreate, false},
		{"manager", authz.ResourceEmployees, authz.ActionEdit, true},
		{"manager", authz.ResourceUsers, authz.ActionView, true},
		{"manager", authz.ResourceUsers, authz.ActionCreate, false},
		{"medical", authz.ResourceClients, authz.ActionCreate, true},
		{"medical", authz.ResourceEmployees, authz.ActionView, false},
		// Delete is admin-only across every collection.
		{"finance", authz.ResourceEmployees, authz.ActionDelete, false},
		{"manager", authz.ResourceClients, authz.ActionDelete, false},
		{"admin", authz.ResourceEmployees, authz.ActionDelete, true},
	}
	for _, tc := range cases {
		identity := authz.Identity{Role: tc.role}
		got := evaluator.Can(identity, tc.resource, tc.action)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.action, tc.resource)
	}
}

func TestCanFailsClosedOnUnknownResourceOrAction(t *testing.T) {
	evaluator := newEvaluator(t)
	identity := authz.Identity{Role: "admin"}

	assert.False(t, evaluator.Can(identity, "unknownResource", authz.ActionView))
	assert.False(t, evaluator.Can(identity, authz.ResourceClinics, "transmogrify"))
	assert.False(t, evaluator.Can(authz.Identity{}, authz.ResourceClinics, authz.ActionView))
}

func TestPrivilegedBypassesMatrix(t *testing.T) {
	evaluator := newEvaluator(t)
	superuser := authz.Identity{Role: "readonly", Privileged: true}

	assert.True(t, evaluator.Can(superuser, authz.ResourceUsers, authz.ActionDelete))
	assert.True(t, evaluator.Can(superuser, "unknownResource", authz.ActionView))
}

func TestCustomPolicyReplacesEmbeddedMatrix(t *testing.T) {
	evaluator, err := authz.NewEvaluatorFromPolicy("p, auditor, clinics, view\n")
	require.NoError(t, err)

	assert.True(t, evaluator.Can(authz.Identity{Role: "auditor"}, authz.ResourceClinics, authz.ActionView))
	// The embedded defaults are gone entirely.
	assert.False(t, evaluator.Can(authz.Identity{Role: "admin"}, authz.ResourceClinics, authz.ActionView))
}

func TestMalformedPolicyRejected(t *testing.T) {
	_, err := authz.NewEvaluatorFromPolicy("g, not, a, policy, line\n")
	require.Error(t, err)
}
