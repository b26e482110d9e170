package governance

import (
	"context"
	"fmt"
	"log/slog"

	"qs-governance/internal/domain"
)

// AssetReconciler converges dataset permission grants for a target group and
// namespace. Asset governance is grant-only: the engine never computes or
// applies permission revocation for assets.
type AssetReconciler struct {
	gw     domain.AccessGateway
	region string
	logger *slog.Logger
}

// NewAssetReconciler creates an AssetReconciler. region is needed to build
// group principal ARNs.
func NewAssetReconciler(gw domain.AccessGateway, region string, logger *slog.Logger) *AssetReconciler {
	return &AssetReconciler{gw: gw, region: region, logger: logger}
}

// Reconcile applies one asset record against the dataset index (name → id).
// Non-dataset categories and unresolved dataset names are explicit skips,
// not failures: manifests may reference datasets across a rollout window.
func (r *AssetReconciler) Reconcile(ctx context.Context, rec domain.AssetRecord, datasets map[string]string) (domain.Outcome, error) {
	if rec.Category != domain.CategoryDataset {
		r.logger.Info("asset category not governed, skipping", "asset", rec.Name, "category", rec.Category)
		return domain.OutcomeSkipped, nil
	}

	datasetID, ok := datasets[rec.Name]
	if !ok {
		r.logger.Warn("dataset not found in account, skipping", "asset", rec.Name)
		return domain.OutcomeSkippedNotFound, nil
	}

	actions, err := domain.ActionsForPermission(rec.Permission)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("asset %q: %w", rec.Name, err)
	}

	principal := domain.GroupPrincipalARN(r.region, rec.AccountID, rec.Namespace, rec.Group)
	if err := r.gw.GrantDatasetPermissions(ctx, rec.AccountID, datasetID, principal, actions); err != nil {
		return domain.OutcomeFailed, fmt.Errorf("grant on dataset %q: %w", rec.Name, err)
	}

	r.logger.Info("dataset permissions granted",
		"dataset", rec.Name,
		"group", rec.Group,
		"namespace", rec.Namespace,
		"permission", rec.Permission,
	)
	return domain.OutcomeConverged, nil
}
