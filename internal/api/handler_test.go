package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qs-governance/internal/domain"
)

type stubGovernor struct {
	usersFn  func(ctx context.Context) (*domain.RunReport, error)
	assetsFn func(ctx context.Context) (*domain.RunReport, error)
}

func (s *stubGovernor) RunUsers(ctx context.Context) (*domain.RunReport, error) {
	return s.usersFn(ctx)
}

func (s *stubGovernor) RunAssets(ctx context.Context) (*domain.RunReport, error) {
	return s.assetsFn(ctx)
}

type stubCollector struct {
	n   int
	err error
}

func (s *stubCollector) Collect(context.Context) (int, error) { return s.n, s.err }

func report(id string, kind domain.RunKind) *domain.RunReport {
	return &domain.RunReport{ID: id, Kind: kind, Succeeded: 1}
}

func newTestHandler(gov Governor, col ManifestCollector) (*Handler, *chi.Mux) {
	h := NewHandler(gov, col, NewRunHistory(10), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/v1", h.Routes)
	return h, r
}

func TestHandler_RunUsers(t *testing.T) {
	gov := &stubGovernor{
		usersFn: func(context.Context) (*domain.RunReport, error) {
			return report("run-1", domain.RunKindUsers), nil
		},
	}
	h, r := newTestHandler(gov, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/runs/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, domain.RunKindUsers, got.Kind)

	archived, ok := h.history.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, 1, archived.Succeeded)
}

func TestHandler_RunAssetsFailureStillArchived(t *testing.T) {
	gov := &stubGovernor{
		assetsFn: func(context.Context) (*domain.RunReport, error) {
			return report("run-2", domain.RunKindAssets), errors.New("grant failed")
		},
	}
	h, r := newTestHandler(gov, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/runs/assets", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	_, ok := h.history.Get("run-2")
	assert.True(t, ok)
}

func TestHandler_Collect(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		_, r := newTestHandler(&stubGovernor{}, &stubCollector{n: 7})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/collect", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"records":7}`, rec.Body.String())
	})

	t.Run("disabled", func(t *testing.T) {
		_, r := newTestHandler(&stubGovernor{}, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/collect", nil))
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("upstream_failure", func(t *testing.T) {
		_, r := newTestHandler(&stubGovernor{}, &stubCollector{err: errors.New("okta down")})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/collect", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandler_RunLookup(t *testing.T) {
	h, r := newTestHandler(&stubGovernor{}, nil)
	h.history.Append(report("run-a", domain.RunKindUsers))
	h.history.Append(report("run-b", domain.RunKindAssets))

	t.Run("list_newest_first", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Runs []*domain.RunReport `json:"runs"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Runs, 2)
		assert.Equal(t, "run-b", body.Runs[0].ID)
	})

	t.Run("get_by_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/run-a", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRunHistory_Capacity(t *testing.T) {
	h := NewRunHistory(2)
	h.Append(report("r1", domain.RunKindUsers))
	h.Append(report("r2", domain.RunKindUsers))
	h.Append(report("r3", domain.RunKindUsers))

	runs := h.List()
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	_, ok := h.Get("r1")
	assert.False(t, ok)
}
