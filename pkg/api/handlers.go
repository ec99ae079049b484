package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qaops/reportoor/pkg/api/history"
	"github.com/qaops/reportoor/pkg/report"
	"github.com/qaops/reportoor/pkg/source"
)

// defaultSlowestLimit is used when the slowest endpoint gets no limit
// parameter.
const defaultSlowestLimit = 10

// noDetailsPlaceholder is shown for failures whose report carried no
// failure detail at any nesting level. An explicit placeholder, never
// an empty cell that looks like missing rendering.
const noDetailsPlaceholder = "No error details available"

// errUnknownSource marks requests for a source name that is not
// configured.
var errUnknownSource = errors.New("unknown report source")

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// writeLoadError maps report-loading failures onto distinct statuses so
// the UI can tell "no data" from "broken report" from "upstream flake".
// A parse failure is never rendered as an empty summary.
func (s *server) writeLoadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnknownSource):
		writeJSON(w, http.StatusNotFound,
			errorResponse{errUnknownSource.Error()})
	case errors.Is(err, source.ErrNoData):
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{source.ErrNoData.Error()})
	default:
		var perr *report.ParseError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusUnprocessableEntity,
				errorResponse{"report is not usable: " + perr.Error()})

			return
		}

		s.log.WithError(err).Warn("Report load failed")
		writeJSON(w, http.StatusBadGateway,
			errorResponse{"fetching report failed"})
	}
}

// --- Public handlers ---

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConfig returns the public dashboard configuration.
func (s *server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sources":          s.sourceOrder,
		"refresh_interval": s.cfg.Server.RefreshInterval,
		"history_enabled":  s.store != nil,
	})
}

// --- Derived view handlers ---

// handleSummary returns the headline counts and health for a source.
func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	rep, err := s.loadReport(r.Context(), name)
	if err != nil {
		s.writeLoadError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":                 name,
		"created":                rep.CreatedAt,
		"suite_duration_seconds": rep.SuiteDurationSeconds,
		"summary":                report.ComputeSummary(rep),
	})
}

// failureResponse is one row of the failing-tests table. Duration stays
// null when unresolved; longrepr always carries either the report's
// detail or the documented placeholder.
type failureResponse struct {
	NodeID   string   `json:"nodeid"`
	Duration *float64 `json:"duration"`
	Longrepr string   `json:"longrepr"`
}

// handleFailures returns the failing tests for a source in report order.
func (s *server) handleFailures(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	rep, err := s.loadReport(r.Context(), name)
	if err != nil {
		s.writeLoadError(w, err)

		return
	}

	records := report.ListFailures(rep)

	failures := make([]failureResponse, 0, len(records))
	for _, rec := range records {
		fr := failureResponse{
			NodeID:   rec.NodeID,
			Duration: rec.Duration,
			Longrepr: noDetailsPlaceholder,
		}

		if rec.Longrepr != nil {
			fr.Longrepr = *rec.Longrepr
		}

		failures = append(failures, fr)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":   name,
		"failures": failures,
	})
}

// handleSlowest returns the slow-test ranking. durations_available is
// false when no test resolved a duration at all, so the UI can show an
// explicit "duration unavailable" state instead of an empty table.
func (s *server) handleSlowest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	limit := defaultSlowestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{"limit must be a non-negative integer"})

			return
		}

		limit = n
	}

	excludeZero := r.URL.Query().Get("exclude_zero") == "true"

	rep, err := s.loadReport(r.Context(), name)
	if err != nil {
		s.writeLoadError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":              name,
		"limit":               limit,
		"exclude_zero":        excludeZero,
		"durations_available": len(report.RankSlowest(rep, -1, false)) > 0,
		"tests":               report.RankSlowest(rep, limit, excludeZero),
	})
}

// handleCategories returns the category distribution in first-seen order.
func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	rep, err := s.loadReport(r.Context(), name)
	if err != nil {
		s.writeLoadError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":     name,
		"categories": report.Categorize(rep),
	})
}

// handleOutcomes returns the outcome distribution in first-seen order.
func (s *server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	rep, err := s.loadReport(r.Context(), name)
	if err != nil {
		s.writeLoadError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":   name,
		"outcomes": report.OutcomeDistribution(rep),
	})
}

// handleRefresh drops the cached report bytes for a source so the next
// fetch goes back to the configured location.
func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	p, ok := s.providers[name]
	if !ok {
		writeJSON(w, http.StatusNotFound,
			errorResponse{errUnknownSource.Error()})

		return
	}

	p.Invalidate()

	s.log.WithField("source", name).Info("Report cache invalidated")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- History handlers ---

type runResponse struct {
	Source        string  `json:"source"`
	Fingerprint   string  `json:"fingerprint"`
	ReportCreated string  `json:"report_created"`
	SuiteDuration float64 `json:"suite_duration_seconds"`
	TestsTotal    int     `json:"tests_total"`
	TestsPassed   int     `json:"tests_passed"`
	TestsFailed   int     `json:"tests_failed"`
	TestsSkipped  int     `json:"tests_skipped"`
	PassRate      float64 `json:"pass_rate"`
	Health        string  `json:"health"`
	IndexedAt     string  `json:"indexed_at"`
}

func toRunResponse(run *history.Run) runResponse {
	return runResponse{
		Source:        run.Source,
		Fingerprint:   run.Fingerprint,
		ReportCreated: run.ReportCreated,
		SuiteDuration: run.SuiteDuration,
		TestsTotal:    run.TestsTotal,
		TestsPassed:   run.TestsPassed,
		TestsFailed:   run.TestsFailed,
		TestsSkipped:  run.TestsSkipped,
		PassRate:      run.PassRate,
		Health:        run.Health,
		IndexedAt:     run.IndexedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// handleListRuns returns the ingestion history, optionally filtered to
// one source via ?source=.
func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	var (
		runs []history.Run
		err  error
	)

	if name := r.URL.Query().Get("source"); name != "" {
		if _, ok := s.providers[name]; !ok {
			writeJSON(w, http.StatusNotFound,
				errorResponse{errUnknownSource.Error()})

			return
		}

		runs, err = s.store.ListRuns(r.Context(), name)
	} else {
		runs, err = s.store.ListAllRuns(r.Context())
	}

	if err != nil {
		s.log.WithError(err).Error("Failed to list runs")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	resp := make([]runResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, toRunResponse(&runs[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": resp})
}

type durationResponse struct {
	NodeID  string  `json:"nodeid"`
	Outcome string  `json:"outcome"`
	Seconds float64 `json:"seconds"`
}

// handleRunDurations returns the per-test durations recorded for one
// ingested snapshot.
func (s *server) handleRunDurations(
	w http.ResponseWriter, r *http.Request,
) {
	fingerprint := chi.URLParam(r, "fingerprint")
	if fingerprint == "" {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{"fingerprint is required"})

		return
	}

	durations, err := s.store.ListTestDurations(r.Context(), fingerprint)
	if err != nil {
		s.log.WithError(err).Error("Failed to list test durations")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"internal error"})

		return
	}

	resp := make([]durationResponse, 0, len(durations))
	for i := range durations {
		d := &durations[i]
		resp = append(resp, durationResponse{
			NodeID:  d.NodeID,
			Outcome: d.Outcome,
			Seconds: d.Seconds,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fingerprint": fingerprint,
		"durations":   resp,
	})
}
