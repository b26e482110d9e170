package governance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"qs-governance/internal/domain"
)

// Runner is the batch driver: it loads a manifest, stamps the executing
// account onto every record, dispatches each record to its reconciler, and
// aggregates per-record outcomes into a RunReport.
//
// The failure policy differs per path on purpose: user governance isolates
// per-record failures so one broken user cannot block the rest, while asset
// governance fails fast, matching the one-shot handler it replaced. Both are
// configurable through RunnerOptions.
type Runner struct {
	gw     domain.AccessGateway
	store  domain.ManifestStore
	users  *UserReconciler
	assets *AssetReconciler
	logger *slog.Logger

	accountID   string
	userKey     string
	assetKey    string
	userPolicy  domain.FailurePolicy
	assetPolicy domain.FailurePolicy
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	AccountID        string
	UserManifestKey  string
	AssetManifestKey string
	// UserPolicy defaults to IsolateErrors, AssetPolicy to FailFast.
	UserPolicy  *domain.FailurePolicy
	AssetPolicy *domain.FailurePolicy
}

// NewRunner creates a Runner over the given reconcilers and manifest store.
func NewRunner(gw domain.AccessGateway, store domain.ManifestStore, users *UserReconciler, assets *AssetReconciler, opts RunnerOptions, logger *slog.Logger) *Runner {
	r := &Runner{
		gw:          gw,
		store:       store,
		users:       users,
		assets:      assets,
		logger:      logger,
		accountID:   opts.AccountID,
		userKey:     opts.UserManifestKey,
		assetKey:    opts.AssetManifestKey,
		userPolicy:  domain.IsolateErrors,
		assetPolicy: domain.FailFast,
	}
	if opts.UserPolicy != nil {
		r.userPolicy = *opts.UserPolicy
	}
	if opts.AssetPolicy != nil {
		r.assetPolicy = *opts.AssetPolicy
	}
	return r
}

// RunUsers executes one user governance pass over the user manifest.
// A missing manifest degrades to an empty record list: the run succeeds
// with zero reconciliation actions.
func (r *Runner) RunUsers(ctx context.Context) (*domain.RunReport, error) {
	report := newReport(domain.RunKindUsers)
	defer report.finish()

	records, err := r.loadUserManifest(ctx)
	if err != nil {
		return report.RunReport, err
	}
	r.logger.Info("user governance run starting", "run", report.ID, "records", len(records))

	for _, rec := range records {
		outcome, recErr := r.users.Reconcile(ctx, rec)
		report.Add(rec.String(), outcome, recErr)
		if recErr == nil {
			continue
		}
		r.logger.Error("user reconciliation failed", "run", report.ID, "record", rec.String(), "error", recErr)
		if r.userPolicy == domain.FailFast {
			return report.RunReport, fmt.Errorf("user governance aborted at %q: %w", rec.String(), recErr)
		}
	}
	return report.RunReport, nil
}

// RunAssets executes one asset governance pass over the asset manifest.
// The dataset index is listed once per run and shared by every record.
func (r *Runner) RunAssets(ctx context.Context) (*domain.RunReport, error) {
	report := newReport(domain.RunKindAssets)
	defer report.finish()

	records, err := r.loadAssetManifest(ctx)
	if err != nil {
		return report.RunReport, err
	}
	r.logger.Info("asset governance run starting", "run", report.ID, "records", len(records))
	if len(records) == 0 {
		return report.RunReport, nil
	}

	datasets, err := r.datasetIndex(ctx)
	if err != nil {
		return report.RunReport, err
	}

	for _, rec := range records {
		outcome, recErr := r.assets.Reconcile(ctx, rec, datasets)
		report.Add(rec.String(), outcome, recErr)
		if recErr == nil {
			continue
		}
		r.logger.Error("asset reconciliation failed", "run", report.ID, "record", rec.String(), "error", recErr)
		if r.assetPolicy == domain.FailFast {
			return report.RunReport, fmt.Errorf("asset governance aborted at %q: %w", rec.String(), recErr)
		}
	}
	return report.RunReport, nil
}

func (r *Runner) loadUserManifest(ctx context.Context) ([]domain.UserRecord, error) {
	data, err := r.store.Get(ctx, r.userKey)
	if err != nil {
		if domain.IsNotFound(err) {
			r.logger.Info("user manifest not found, treating as empty", "key", r.userKey)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user manifest %q: %w", r.userKey, err)
	}
	m, err := domain.DecodeUserManifest(data)
	if err != nil {
		return nil, err
	}
	for i := range m.Users {
		m.Users[i].AccountID = r.accountID
	}
	return m.Users, nil
}

func (r *Runner) loadAssetManifest(ctx context.Context) ([]domain.AssetRecord, error) {
	data, err := r.store.Get(ctx, r.assetKey)
	if err != nil {
		if domain.IsNotFound(err) {
			r.logger.Info("asset manifest not found, treating as empty", "key", r.assetKey)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch asset manifest %q: %w", r.assetKey, err)
	}
	m, err := domain.DecodeAssetManifest(data)
	if err != nil {
		return nil, err
	}
	for i := range m.Assets {
		m.Assets[i].AccountID = r.accountID
	}
	return m.Assets, nil
}

// datasetIndex maps dataset names to IDs for the executing account. On
// duplicate names the first listing wins, matching remote listing order.
func (r *Runner) datasetIndex(ctx context.Context) (map[string]string, error) {
	summaries, err := r.gw.ListDatasets(ctx, r.accountID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	index := make(map[string]string, len(summaries))
	for _, s := range summaries {
		if _, ok := index[s.Name]; !ok {
			index[s.Name] = s.ID
		}
	}
	return index, nil
}

// runReport wraps domain.RunReport with timing bookkeeping.
type runReport struct {
	*domain.RunReport
	started time.Time
}

func newReport(kind domain.RunKind) *runReport {
	now := time.Now()
	return &runReport{
		RunReport: &domain.RunReport{ID: uuid.NewString(), Kind: kind, StartedAt: now},
		started:   now,
	}
}

func (r *runReport) finish() {
	r.DurationMS = time.Since(r.started).Milliseconds()
}
