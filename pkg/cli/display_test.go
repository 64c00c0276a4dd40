package cli_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octodash/pkg/cli"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

func newTestDisplay(t *testing.T) (*cli.DisplayManager, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var out, errOut bytes.Buffer
	return cli.NewDisplayManager(&out, &errOut, "octo/dash", false), &out, &errOut
}

func TestDisplayShowRuns(t *testing.T) {
	display, out, _ := newTestDisplay(t)
	now := time.Now()

	display.ShowRuns([]*model.Run{
		{
			ID: 1, Name: "deploy-prod", Status: model.RunStatusCompleted, Conclusion: model.RunConclusionSuccess,
			Branch: "main", Actor: model.Actor{Login: "octocat"},
			StartedAt: now.Add(-3 * time.Minute), UpdatedAt: now.Add(-time.Minute),
		},
		{ID: 2, Name: "unit-tests", Status: model.RunStatusInProgress, StartedAt: now.Add(-30 * time.Second)},
		{ID: 3, Name: "release", Status: model.RunStatusQueued},
	}, model.RunStats{Total: 3, Success: 1, Other: 2})

	text := out.String()
	gt.True(t, strings.Contains(text, "octo/dash"))
	gt.True(t, strings.Contains(text, "total 3"))
	gt.True(t, strings.Contains(text, "success 1"))
	gt.True(t, strings.Contains(text, "✅ deploy-prod [success] octocat@main took 2m0s, 1m ago"))
	gt.True(t, strings.Contains(text, "🔄 unit-tests [in progress]"))
	gt.True(t, strings.Contains(text, "⏳ release [queued]"))
}

func TestDisplayShowRunsWithoutStartTime(t *testing.T) {
	display, out, _ := newTestDisplay(t)
	now := time.Now()

	display.ShowRuns([]*model.Run{
		{ID: 1, Name: "skipped-job", Status: model.RunStatusCompleted, Conclusion: model.RunConclusionSkipped, UpdatedAt: now.Add(-time.Minute)},
		{ID: 2, Name: "starting", Status: model.RunStatusInProgress},
	}, model.RunStats{Total: 2, Other: 2})

	text := out.String()
	gt.True(t, strings.Contains(text, "took 0s, 1m ago"))
	gt.True(t, strings.Contains(text, "running"))
	gt.False(t, strings.Contains(text, "2562047h"))
}

func TestDisplayShowRunsEmpty(t *testing.T) {
	display, out, _ := newTestDisplay(t)
	display.ShowRuns(nil, model.RunStats{})
	gt.True(t, strings.Contains(out.String(), "No workflow runs found"))
}

func TestDisplayShowSummary(t *testing.T) {
	t.Run("summary with failures", func(t *testing.T) {
		display, out, _ := newTestDisplay(t)
		display.ShowSummary(&model.RunSummary{
			Run:      &model.Run{ID: 7, Name: "deploy-prod"},
			Artifact: &model.Artifact{Name: "test-results"},
			Summary:  &model.TestSummary{PassedSuites: 3, FailedSuites: 1, PassedTests: 10},
		})

		text := out.String()
		gt.True(t, strings.Contains(text, "❌ deploy-prod #7 [test-results]"))
		gt.True(t, strings.Contains(text, "3 passed 1 failed 0 pending (total 4)"))
		gt.True(t, strings.Contains(text, "tests:"))
	})

	t.Run("zero summary hides test line", func(t *testing.T) {
		display, out, _ := newTestDisplay(t)
		display.ShowSummary(&model.RunSummary{
			Run:     &model.Run{ID: 8, Name: "deploy"},
			Summary: &model.TestSummary{},
		})

		text := out.String()
		gt.True(t, strings.Contains(text, "✅ deploy #8"))
		gt.True(t, strings.Contains(text, "(total 0)"))
		gt.False(t, strings.Contains(text, "tests:"))
	})

	t.Run("lookup error", func(t *testing.T) {
		display, out, _ := newTestDisplay(t)
		display.ShowSummary(&model.RunSummary{
			Run: &model.Run{ID: 9, Name: "deploy"},
			Err: domain.ErrNotFound,
		})
		gt.True(t, strings.Contains(out.String(), "❓ deploy #9"))
	})
}

func TestDisplayShowError(t *testing.T) {
	display, out, errOut := newTestDisplay(t)
	display.ShowError(domain.ErrTransport)
	gt.Equal(t, out.Len(), 0)
	gt.True(t, strings.Contains(errOut.String(), "Error:"))
}
