package api_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octodash/pkg/api"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

type stubGitHub struct {
	runs      []*model.Run
	runsErr   error
	artifacts map[int64][]*model.Artifact
	archives  map[string][]byte
}

func (s *stubGitHub) ListRuns(ctx context.Context, repo model.Repository) ([]*model.Run, error) {
	if s.runsErr != nil {
		return nil, s.runsErr
	}
	return s.runs, nil
}

func (s *stubGitHub) ListArtifacts(ctx context.Context, repo model.Repository, runID int64) ([]*model.Artifact, error) {
	artifacts, ok := s.artifacts[runID]
	if !ok {
		return nil, domain.ErrNotFound.Wrap(goerr.New("run not found"))
	}
	return artifacts, nil
}

func (s *stubGitHub) DownloadArtifact(ctx context.Context, artifact *model.Artifact) ([]byte, error) {
	return s.archives[artifact.DownloadURL], nil
}

func zipWith(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	gt.NoError(t, err)
	_, err = f.Write([]byte(body))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())
	return buf.Bytes()
}

func newStub(t *testing.T) *stubGitHub {
	return &stubGitHub{
		runs: []*model.Run{
			{ID: 1, Name: "deploy-prod", Status: model.RunStatusCompleted, Conclusion: model.RunConclusionSuccess},
			{ID: 2, Name: "unit-tests", Status: model.RunStatusCompleted, Conclusion: model.RunConclusionFailure},
			{ID: 3, Name: "release-v2", Status: model.RunStatusInProgress},
		},
		artifacts: map[int64][]*model.Artifact{
			1: {{ID: 10, Name: "test-results", DownloadURL: "mem://10"}},
			2: {{ID: 20, Name: "coverage", DownloadURL: "mem://20"}},
			3: {{ID: 30, Name: "test-results", DownloadURL: "mem://30"}},
		},
		archives: map[string][]byte{
			"mem://10": zipWith(t, "report.json", `{"numPassedTestSuites":3,"numFailedTestSuites":1,"numPassedTests":40}`),
			"mem://30": []byte("broken"),
		},
	}
}

func doGet(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body map[string]any
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestListRuns(t *testing.T) {
	handler := api.NewServer(api.ServerOptions{GitHub: newStub(t)}).Handler()

	t.Run("all runs with stats", func(t *testing.T) {
		rec, body := doGet(t, handler, "/api/repos/octo/dash/runs")
		gt.Equal(t, rec.Code, http.StatusOK)
		gt.Equal(t, rec.Header().Get("Content-Type"), "application/json")
		gt.A(t, body["runs"].([]any)).Length(3)

		stats := body["stats"].(map[string]any)
		gt.Equal(t, stats["total"], any(float64(3)))
		gt.Equal(t, stats["success"], any(float64(1)))
		gt.Equal(t, stats["failure"], any(float64(1)))
		gt.Equal(t, stats["other"], any(float64(1)))
	})

	t.Run("conclusion filter", func(t *testing.T) {
		rec, body := doGet(t, handler, "/api/repos/octo/dash/runs?conclusion=failure")
		gt.Equal(t, rec.Code, http.StatusOK)
		runs := body["runs"].([]any)
		gt.A(t, runs).Length(1)
		gt.Equal(t, runs[0].(map[string]any)["name"], any("unit-tests"))
	})

	t.Run("status filter", func(t *testing.T) {
		_, body := doGet(t, handler, "/api/repos/octo/dash/runs?status=in_progress")
		gt.A(t, body["runs"].([]any)).Length(1)
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		rec, body := doGet(t, handler, "/api/repos/octo/dash/runs?conclusion=skipped")
		gt.Equal(t, rec.Code, http.StatusOK)
		gt.A(t, body["runs"].([]any)).Length(0)
	})
}

func TestListDeployments(t *testing.T) {
	handler := api.NewServer(api.ServerOptions{GitHub: newStub(t)}).Handler()

	rec, body := doGet(t, handler, "/api/repos/octo/dash/deployments")
	gt.Equal(t, rec.Code, http.StatusOK)
	runs := body["runs"].([]any)
	gt.A(t, runs).Length(2)
	gt.Equal(t, runs[0].(map[string]any)["name"], any("deploy-prod"))
	gt.Equal(t, runs[1].(map[string]any)["name"], any("release-v2"))
}

func TestListArtifacts(t *testing.T) {
	handler := api.NewServer(api.ServerOptions{GitHub: newStub(t)}).Handler()

	rec, body := doGet(t, handler, "/api/repos/octo/dash/runs/1/artifacts")
	gt.Equal(t, rec.Code, http.StatusOK)
	gt.A(t, body["artifacts"].([]any)).Length(1)

	rec, _ = doGet(t, handler, "/api/repos/octo/dash/runs/abc/artifacts")
	gt.Equal(t, rec.Code, http.StatusBadRequest)

	rec, _ = doGet(t, handler, "/api/repos/octo/dash/runs/99/artifacts")
	gt.Equal(t, rec.Code, http.StatusNotFound)
}

func TestGetSummary(t *testing.T) {
	handler := api.NewServer(api.ServerOptions{GitHub: newStub(t)}).Handler()

	t.Run("decoded summary", func(t *testing.T) {
		rec, body := doGet(t, handler, "/api/repos/octo/dash/runs/1/summary")
		gt.Equal(t, rec.Code, http.StatusOK)
		gt.Equal(t, body["run_id"], any(float64(1)))
		gt.Equal(t, body["artifact"], any("test-results"))
		gt.Equal(t, body["total"], any(float64(4)))
		gt.Equal(t, body["test_total"], any(float64(40)))

		summary := body["summary"].(map[string]any)
		gt.Equal(t, summary["passed_suites"], any(float64(3)))
		gt.Equal(t, summary["pending_suites"], any(float64(0)))
	})

	t.Run("no test artifact is 404", func(t *testing.T) {
		rec, body := doGet(t, handler, "/api/repos/octo/dash/runs/2/summary")
		gt.Equal(t, rec.Code, http.StatusNotFound)
		gt.NotEqual(t, body["error"], any(nil))
	})

	t.Run("broken archive is 422", func(t *testing.T) {
		rec, _ := doGet(t, handler, "/api/repos/octo/dash/runs/3/summary")
		gt.Equal(t, rec.Code, http.StatusUnprocessableEntity)
	})
}

func TestListDeploymentSummaries(t *testing.T) {
	handler := api.NewServer(api.ServerOptions{GitHub: newStub(t)}).Handler()

	rec, body := doGet(t, handler, "/api/repos/octo/dash/deployments/summaries?limit=2")
	gt.Equal(t, rec.Code, http.StatusOK)
	summaries := body["summaries"].([]any)
	gt.A(t, summaries).Length(2)

	first := summaries[0].(map[string]any)
	gt.Equal(t, first["run_id"], any(float64(1)))
	gt.Equal(t, first["total"], any(float64(4)))

	second := summaries[1].(map[string]any)
	gt.Equal(t, second["run_id"], any(float64(3)))
	gt.NotEqual(t, second["error"], any(nil))

	rec, _ = doGet(t, handler, "/api/repos/octo/dash/deployments/summaries?limit=0")
	gt.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestErrorStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: domain.ErrNotFound.Wrap(goerr.New("missing")), want: http.StatusNotFound},
		{name: "access denied", err: domain.ErrAccessDenied.Wrap(goerr.New("rate limited")), want: http.StatusForbidden},
		{name: "format", err: domain.ErrFormat.Wrap(goerr.New("bad json")), want: http.StatusUnprocessableEntity},
		{name: "transport", err: domain.ErrTransport.Wrap(goerr.New("reset")), want: http.StatusBadGateway},
		{name: "unknown", err: goerr.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := api.NewServer(api.ServerOptions{GitHub: &stubGitHub{runsErr: tc.err}}).Handler()
			rec, body := doGet(t, handler, "/api/repos/octo/dash/runs")
			gt.Equal(t, rec.Code, tc.want)
			gt.NotEqual(t, body["error"], any(nil))
		})
	}
}

func TestCORS(t *testing.T) {
	handler := api.NewServer(api.ServerOptions{
		GitHub:         newStub(t),
		AllowedOrigins: []string{"http://localhost:3000"},
	}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusOK)
	gt.Equal(t, rec.Header().Get("Access-Control-Allow-Origin"), "http://localhost:3000")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	gt.Equal(t, rec.Header().Get("Access-Control-Allow-Origin"), "")
}
