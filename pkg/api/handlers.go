package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/m-mizutani/octodash/pkg/usecase"
)

const defaultSummaryLimit = 5

var errBadRequest = goerr.New("bad request", goerr.ID("bad_request"))

type runsResponse struct {
	Runs  []*model.Run   `json:"runs"`
	Stats model.RunStats `json:"stats"`
}

type summaryResponse struct {
	RunID     int64              `json:"run_id"`
	Artifact  string             `json:"artifact,omitempty"`
	Summary   *model.TestSummary `json:"summary,omitempty"`
	Total     int                `json:"total"`
	TestTotal int                `json:"test_total"`
	Error     string             `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	repo, err := repoFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	runs, err := s.github.ListRuns(r.Context(), repo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	runs = usecase.ByStatus(runs, queryFilter(r, "status"))
	runs = usecase.ByConclusion(runs, queryFilter(r, "conclusion"))
	writeJSON(w, http.StatusOK, runsResponse{Runs: nonNilRuns(runs), Stats: usecase.Summarize(runs)})
}

func (s *Server) listDeployments(w http.ResponseWriter, r *http.Request) {
	repo, err := repoFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	runs, err := s.github.ListRuns(r.Context(), repo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deployments := usecase.ByConclusion(s.classifier.Deployments(runs), queryFilter(r, "conclusion"))
	writeJSON(w, http.StatusOK, runsResponse{Runs: nonNilRuns(deployments), Stats: usecase.Summarize(deployments)})
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request) {
	repo, err := repoFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	runID, err := runIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	artifacts, err := s.github.ListArtifacts(r.Context(), repo, runID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if artifacts == nil {
		artifacts = []*model.Artifact{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	repo, err := repoFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	runID, err := runIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.report.TestSummary(r.Context(), repo, runID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result.Run = &model.Run{ID: runID}
	writeJSON(w, http.StatusOK, toSummaryResponse(result))
}

func (s *Server) listDeploymentSummaries(w http.ResponseWriter, r *http.Request) {
	repo, err := repoFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := defaultSummaryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, errBadRequest.Wrap(goerr.New("limit must be a positive integer"), goerr.V("limit", v)))
			return
		}
		limit = n
	}

	runs, err := s.github.ListRuns(r.Context(), repo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deployments := s.classifier.Deployments(runs)
	if len(deployments) > limit {
		deployments = deployments[:limit]
	}

	results := s.report.Summaries(r.Context(), repo, deployments)
	summaries := make([]summaryResponse, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, toSummaryResponse(result))
	}

	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func toSummaryResponse(result *model.RunSummary) summaryResponse {
	resp := summaryResponse{}
	if result.Run != nil {
		resp.RunID = result.Run.ID
	}
	if result.Artifact != nil {
		resp.Artifact = result.Artifact.Name
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
		return resp
	}
	if result.Summary != nil {
		resp.Summary = result.Summary
		resp.Total = result.Summary.Total()
		resp.TestTotal = result.Summary.TestTotal()
	}
	return resp
}

func repoFromPath(r *http.Request) (model.Repository, error) {
	repo := model.Repository{
		Owner: chi.URLParam(r, "owner"),
		Name:  chi.URLParam(r, "repo"),
	}
	if err := repo.Validate(); err != nil {
		return repo, errBadRequest.Wrap(err)
	}
	return repo, nil
}

func runIDFromPath(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "runID")
	runID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || runID <= 0 {
		return 0, errBadRequest.Wrap(goerr.New("invalid run ID"), goerr.V("run_id", raw))
	}
	return runID, nil
}

// queryFilter reads a filter parameter; a missing or empty value means "all".
func queryFilter(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return model.FilterAll
}

func nonNilRuns(runs []*model.Run) []*model.Run {
	if runs == nil {
		return []*model.Run{}
	}
	return runs
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logger := ctxlog.From(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	} else {
		logger.Debug("request rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
