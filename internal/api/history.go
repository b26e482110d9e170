package api

import (
	"sync"

	"qs-governance/internal/domain"
)

// RunHistory is a bounded, in-memory archive of recent run reports, newest
// first. Reports are not persisted; the manifest and remote state carry the
// durable truth, history exists for operator inspection.
type RunHistory struct {
	mu      sync.Mutex
	max     int
	reports []*domain.RunReport
}

// NewRunHistory creates a history retaining at most max reports.
func NewRunHistory(max int) *RunHistory {
	if max <= 0 {
		max = 50
	}
	return &RunHistory{max: max}
}

// Append archives a report, evicting the oldest beyond capacity.
func (h *RunHistory) Append(report *domain.RunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append([]*domain.RunReport{report}, h.reports...)
	if len(h.reports) > h.max {
		h.reports = h.reports[:h.max]
	}
}

// List returns the archived reports, newest first.
func (h *RunHistory) List() []*domain.RunReport {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*domain.RunReport, len(h.reports))
	copy(out, h.reports)
	return out
}

// Get returns the report with the given run ID.
func (h *RunHistory) Get(id string) (*domain.RunReport, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.reports {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}
