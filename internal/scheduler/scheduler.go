// Package scheduler runs governance and collection on cron schedules.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"qs-governance/internal/domain"
)

// Governor triggers governance runs.
type Governor interface {
	RunUsers(ctx context.Context) (*domain.RunReport, error)
	RunAssets(ctx context.Context) (*domain.RunReport, error)
}

// ManifestCollector rebuilds the user manifest from the identity provider.
type ManifestCollector interface {
	Collect(ctx context.Context) (int, error)
}

// Archiver receives reports from scheduled runs so the admin API can serve
// them alongside manually triggered ones.
type Archiver interface {
	Append(report *domain.RunReport)
}

// Schedules holds the cron expressions for each recurring job. An empty
// expression disables that job.
type Schedules struct {
	Users   string
	Assets  string
	Collect string
}

// Scheduler manages cron-based governance execution.
type Scheduler struct {
	cron      *cron.Cron
	governor  Governor
	collector ManifestCollector // nil when collection is not configured
	archive   Archiver
	logger    *slog.Logger
}

// New creates a Scheduler. collector may be nil.
func New(governor Governor, collector ManifestCollector, archive Archiver, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		governor:  governor,
		collector: collector,
		archive:   archive,
		logger:    logger,
	}
}

// Register adds the configured jobs to the cron table. An invalid expression
// is an error: a governance job that silently never fires would let remote
// state drift unbounded.
func (s *Scheduler) Register(sch Schedules) error {
	if sch.Users != "" {
		if _, err := s.cron.AddFunc(sch.Users, s.runJob("users", s.governor.RunUsers)); err != nil {
			return err
		}
		s.logger.Info("scheduled user governance", "schedule", sch.Users)
	}
	if sch.Assets != "" {
		if _, err := s.cron.AddFunc(sch.Assets, s.runJob("assets", s.governor.RunAssets)); err != nil {
			return err
		}
		s.logger.Info("scheduled asset governance", "schedule", sch.Assets)
	}
	if sch.Collect != "" && s.collector != nil {
		if _, err := s.cron.AddFunc(sch.Collect, s.collectJob); err != nil {
			return err
		}
		s.logger.Info("scheduled manifest collection", "schedule", sch.Collect)
	}
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("governance scheduler started")
}

// Stop stops the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("governance scheduler stopped")
}

func (s *Scheduler) runJob(kind string, run func(context.Context) (*domain.RunReport, error)) func() {
	return func() {
		report, err := run(context.Background())
		if s.archive != nil && report != nil {
			s.archive.Append(report)
		}
		if err != nil {
			s.logger.Warn("scheduled governance run failed", "kind", kind, "error", err)
			return
		}
		s.logger.Info("scheduled governance run finished",
			"kind", kind,
			"run", report.ID,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
			"skipped", report.Skipped,
		)
	}
}

func (s *Scheduler) collectJob() {
	n, err := s.collector.Collect(context.Background())
	if err != nil {
		s.logger.Warn("scheduled manifest collection failed", "error", err)
		return
	}
	s.logger.Info("scheduled manifest collection finished", "records", n)
}
