package governance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qs-governance/internal/domain"
)

const (
	testAccount = "012345678901"
	testPrefix  = "FederatedQuickSightRole"
)

func newUserRec() domain.UserRecord {
	return domain.UserRecord{
		Username:  "a",
		Namespace: "ns1",
		Groups:    "g1,g2",
		Role:      "READER",
		Email:     "a@x.com",
		AccountID: testAccount,
	}
}

// convergedGateway returns a gateway whose live state already matches
// newUserRec(): namespace, user, and both groups exist, memberships match.
func convergedGateway() *mockGateway {
	return &mockGateway{
		NamespaceExistsFn: func(_ context.Context, _, _ string) (bool, error) { return true, nil },
		UserExistsFn:      func(_ context.Context, _, _, _ string) (bool, error) { return true, nil },
		GroupExistsFn:     func(_ context.Context, _, _, _ string) (bool, error) { return true, nil },
		ListUserGroupsFn: func(_ context.Context, _, _, _ string) ([]string, error) {
			return []string{"g1", "g2"}, nil
		},
	}
}

func TestUserReconciler_NewUserTwoGroups(t *testing.T) {
	// Empty remote state: every probe misses, every mutation succeeds.
	gw := &mockGateway{}
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	outcome, err := r.Reconcile(context.Background(), newUserRec())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConverged, outcome)

	// Exactly 7 mutating calls, in checkpoint order.
	assert.Equal(t, []string{
		"CreateNamespace(ns1)",
		"RegisterUser(ns1,a@x.com,READER)",
		"UpdateUserRole(ns1,FederatedQuickSightRole/a,READER)",
		"CreateGroup(g1)",
		"CreateGroup(g2)",
		"AddMembership(g1)",
		"AddMembership(g2)",
	}, gw.MutatingCalls())
}

func TestUserReconciler_Idempotence(t *testing.T) {
	// Against already-converged state, the only mutating call is the role
	// update, which is idempotent on the remote side. Registration, group
	// creation, and membership changes are all skipped.
	gw := convergedGateway()
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	for range 2 {
		outcome, err := r.Reconcile(context.Background(), newUserRec())
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeConverged, outcome)
	}

	assert.Equal(t, []string{
		"UpdateUserRole(ns1,FederatedQuickSightRole/a,READER)",
		"UpdateUserRole(ns1,FederatedQuickSightRole/a,READER)",
	}, gw.MutatingCalls())
}

func TestUserReconciler_MembershipPruning(t *testing.T) {
	// Current {g1,g3}, desired {g1,g2}: create g2 (absent), add g2,
	// remove g3, no operation on g1.
	gw := convergedGateway()
	gw.GroupExistsFn = func(_ context.Context, _, _, group string) (bool, error) {
		return group == "g1", nil
	}
	gw.ListUserGroupsFn = func(_ context.Context, _, _, _ string) ([]string, error) {
		return []string{"g1", "g3"}, nil
	}
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	outcome, err := r.Reconcile(context.Background(), newUserRec())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConverged, outcome)

	assert.Equal(t, []string{
		"UpdateUserRole(ns1,FederatedQuickSightRole/a,READER)",
		"CreateGroup(g2)",
		"AddMembership(g2)",
		"RemoveMembership(g3)",
	}, gw.MutatingCalls())
}

func TestUserReconciler_DowngradeTriggersDelete(t *testing.T) {
	for name, roleErr := range map[string]error{
		"not_found":    domain.ErrNotFound("user not found"),
		"invalid_role": domain.ErrInvalidRole("role READER not valid here"),
	} {
		t.Run(name, func(t *testing.T) {
			gw := convergedGateway()
			gw.UpdateUserRoleFn = func(_ context.Context, _, _, _, _, _ string) error {
				return roleErr
			}
			r := NewUserReconciler(gw, testPrefix, 0, testLogger())

			outcome, err := r.Reconcile(context.Background(), newUserRec())
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeDeleted, outcome)

			// The user is deleted and no group operation is attempted,
			// regardless of the record's desired groups.
			assert.Equal(t, []string{
				"UpdateUserRole(ns1,FederatedQuickSightRole/a,READER)",
				"DeleteUser(ns1,FederatedQuickSightRole/a)",
			}, gw.MutatingCalls())
			assert.NotContains(t, gw.Calls, "ListUserGroups(ns1,FederatedQuickSightRole/a)")
		})
	}
}

func TestUserReconciler_DeleteFailureSurfaces(t *testing.T) {
	gw := convergedGateway()
	gw.UpdateUserRoleFn = func(_ context.Context, _, _, _, _, _ string) error {
		return domain.ErrInvalidRole("downgrade")
	}
	gw.DeleteUserFn = func(_ context.Context, _, _, _ string) error {
		return domain.ErrRemote("DeleteUser", errTest)
	}
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	outcome, err := r.Reconcile(context.Background(), newUserRec())
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, errTest)
}

func TestUserReconciler_RemoteFailureAborts(t *testing.T) {
	gw := convergedGateway()
	gw.NamespaceExistsFn = func(_ context.Context, _, _ string) (bool, error) {
		return false, domain.ErrRemote("DescribeNamespace", errTest)
	}
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	outcome, err := r.Reconcile(context.Background(), newUserRec())
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
	assert.Empty(t, gw.MutatingCalls())
}

func TestUserReconciler_SettlesAfterNamespaceCreation(t *testing.T) {
	gw := convergedGateway()
	gw.NamespaceExistsFn = func(_ context.Context, _, _ string) (bool, error) { return false, nil }

	var slept []time.Duration
	r := NewUserReconciler(gw, testPrefix, 2*time.Minute, testLogger())
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := r.Reconcile(context.Background(), newUserRec())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Minute}, slept)

	// An existing namespace must not trigger the settling wait.
	slept = nil
	gw.NamespaceExistsFn = func(_ context.Context, _, _ string) (bool, error) { return true, nil }
	_, err = r.Reconcile(context.Background(), newUserRec())
	require.NoError(t, err)
	assert.Empty(t, slept)
}

func TestUserReconciler_NoGroupsSkipsGroupWork(t *testing.T) {
	gw := convergedGateway()
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	rec := newUserRec()
	rec.Groups = ""
	outcome, err := r.Reconcile(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConverged, outcome)
	assert.NotContains(t, gw.Calls, "ListUserGroups(ns1,FederatedQuickSightRole/a)")
}

func TestUserReconciler_InvalidRecord(t *testing.T) {
	gw := convergedGateway()
	r := NewUserReconciler(gw, testPrefix, 0, testLogger())

	outcome, err := r.Reconcile(context.Background(), domain.UserRecord{Namespace: "ns1", Role: "READER"})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
	assert.Empty(t, gw.Calls, "invalid records must not reach the remote system")
}
