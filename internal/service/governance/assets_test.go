package governance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qs-governance/internal/domain"
)

func newAssetRec() domain.AssetRecord {
	return domain.AssetRecord{
		Name:       "t1",
		Category:   "dataset",
		Namespace:  "ns1",
		Group:      "devs",
		Permission: "READ",
		AccountID:  testAccount,
	}
}

func TestAssetReconciler_Grant(t *testing.T) {
	var gotPrincipal, gotDataset string
	var gotActions []string
	gw := &mockGateway{
		GrantDatasetPermissionsFn: func(_ context.Context, _, datasetID, principalARN string, actions []string) error {
			gotDataset = datasetID
			gotPrincipal = principalARN
			gotActions = actions
			return nil
		},
	}
	r := NewAssetReconciler(gw, "us-east-1", testLogger())

	outcome, err := r.Reconcile(context.Background(), newAssetRec(), map[string]string{"t1": "d-123"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConverged, outcome)
	assert.Equal(t, "d-123", gotDataset)
	assert.Equal(t, "arn:aws:quicksight:us-east-1:012345678901:group/ns1/devs", gotPrincipal)
	assert.Len(t, gotActions, 5)
	assert.Contains(t, gotActions, "quicksight:PassDataSet")
	assert.Len(t, gw.MutatingCalls(), 1)
}

func TestAssetReconciler_SkipsNonDatasetCategory(t *testing.T) {
	gw := &mockGateway{}
	r := NewAssetReconciler(gw, "us-east-1", testLogger())

	for _, category := range []string{"dashboard", "theme", "analyses"} {
		rec := newAssetRec()
		rec.Category = category
		outcome, err := r.Reconcile(context.Background(), rec, map[string]string{"t1": "d-123"})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSkipped, outcome)
	}
	assert.Empty(t, gw.Calls, "skipped categories must produce zero remote calls")
}

func TestAssetReconciler_SkipsUnresolvedDataset(t *testing.T) {
	gw := &mockGateway{}
	r := NewAssetReconciler(gw, "us-east-1", testLogger())

	outcome, err := r.Reconcile(context.Background(), newAssetRec(), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedNotFound, outcome)
	assert.Empty(t, gw.Calls)
}

func TestAssetReconciler_UnrecognizedPermission(t *testing.T) {
	gw := &mockGateway{}
	r := NewAssetReconciler(gw, "us-east-1", testLogger())

	rec := newAssetRec()
	rec.Permission = "ADMIN"
	outcome, err := r.Reconcile(context.Background(), rec, map[string]string{"t1": "d-123"})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, gw.MutatingCalls(), "no grant may be issued for an unknown permission")
}

func TestAssetReconciler_GrantFailure(t *testing.T) {
	gw := &mockGateway{
		GrantDatasetPermissionsFn: func(_ context.Context, _, _, _ string, _ []string) error {
			return domain.ErrRemote("UpdateDataSetPermissions", errTest)
		},
	}
	r := NewAssetReconciler(gw, "us-east-1", testLogger())

	outcome, err := r.Reconcile(context.Background(), newAssetRec(), map[string]string{"t1": "d-123"})
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, errTest)
}
