package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

var (
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	pendingColor = color.New(color.FgYellow)
	mutedColor   = color.New(color.FgHiBlack)
	headerColor  = color.New(color.Bold)
)

type DisplayManager struct {
	out      io.Writer
	errOut   io.Writer
	repoName string
	// redraw clears the screen on every refresh; off when output is piped.
	redraw bool
}

var _ interfaces.WatchDisplay = (*DisplayManager)(nil)

func NewDisplayManager(out, errOut io.Writer, repoName string, redraw bool) *DisplayManager {
	return &DisplayManager{
		out:      out,
		errOut:   errOut,
		repoName: repoName,
		redraw:   redraw,
	}
}

func (d *DisplayManager) ShowRuns(runs []*model.Run, stats model.RunStats) {
	headerColor.Fprintf(d.out, "%s\n", d.repoName)
	fmt.Fprintf(d.out, "%s  %s  %s  %s\n",
		fmt.Sprintf("total %d", stats.Total),
		successColor.Sprintf("success %d", stats.Success),
		failureColor.Sprintf("failure %d", stats.Failure),
		mutedColor.Sprintf("other %d", stats.Other),
	)

	if len(runs) == 0 {
		mutedColor.Fprintf(d.out, "No workflow runs found\n")
		return
	}

	for _, run := range runs {
		fmt.Fprintf(d.out, "%s %s %s %s %s\n",
			statusIcon(run),
			run.Name,
			statusText(run),
			mutedColor.Sprintf("%s@%s", run.Actor.Login, run.Branch),
			mutedColor.Sprint(timeInfo(run, time.Now())),
		)
	}
}

func (d *DisplayManager) ShowSummary(result *model.RunSummary) {
	name := "run"
	if result.Run != nil {
		name = fmt.Sprintf("%s #%d", result.Run.Name, result.Run.ID)
	}

	if result.Err != nil {
		fmt.Fprintf(d.out, "%s %s %s\n", "❓", name, mutedColor.Sprintf("(%v)", result.Err))
		return
	}

	s := result.Summary
	if s == nil {
		s = &model.TestSummary{}
	}

	icon := "✅"
	if s.FailedSuites > 0 || s.FailedTests > 0 {
		icon = "❌"
	}

	fmt.Fprintf(d.out, "%s %s", icon, name)
	if result.Artifact != nil {
		mutedColor.Fprintf(d.out, " [%s]", result.Artifact.Name)
	}
	fmt.Fprintln(d.out)

	fmt.Fprintf(d.out, "   suites: %s %s %s (total %d)\n",
		successColor.Sprintf("%d passed", s.PassedSuites),
		failureColor.Sprintf("%d failed", s.FailedSuites),
		pendingColor.Sprintf("%d pending", s.PendingSuites),
		s.Total(),
	)
	if s.TestTotal() > 0 {
		fmt.Fprintf(d.out, "   tests:  %s %s %s (total %d)\n",
			successColor.Sprintf("%d passed", s.PassedTests),
			failureColor.Sprintf("%d failed", s.FailedTests),
			pendingColor.Sprintf("%d pending", s.PendingTests),
			s.TestTotal(),
		)
	}
}

func (d *DisplayManager) ShowRefresh(runs []*model.Run, stats model.RunStats, lastUpdate time.Time, interval time.Duration) {
	if d.redraw {
		fmt.Fprint(d.out, "\033[H\033[2J")
	}

	d.ShowRuns(runs, stats)

	next := time.Until(lastUpdate.Add(interval)).Round(time.Second)
	mutedColor.Fprintf(d.out, "Last check: %s | Next in: %s\n",
		lastUpdate.Format("15:04:05"), next)
}

func (d *DisplayManager) ShowError(err error) {
	failureColor.Fprintf(d.errOut, "Error: %v\n", err)
}

func statusIcon(run *model.Run) string {
	if run.Status == model.RunStatusCompleted {
		switch run.Conclusion {
		case model.RunConclusionSuccess:
			return "✅"
		case model.RunConclusionFailure, model.RunConclusionTimedOut:
			return "❌"
		case model.RunConclusionCancelled:
			return "⚪"
		case model.RunConclusionSkipped:
			return "⏭️"
		default:
			return "❓"
		}
	}

	switch run.Status {
	case model.RunStatusQueued:
		return "⏳"
	case model.RunStatusInProgress:
		return "🔄"
	default:
		return "❓"
	}
}

func statusText(run *model.Run) string {
	if run.Status == model.RunStatusCompleted {
		text := fmt.Sprintf("[%s]", strings.ReplaceAll(string(run.Conclusion), "_", " "))
		switch run.Conclusion {
		case model.RunConclusionSuccess:
			return successColor.Sprint(text)
		case model.RunConclusionFailure, model.RunConclusionTimedOut:
			return failureColor.Sprint(text)
		default:
			return mutedColor.Sprint(text)
		}
	}
	return pendingColor.Sprintf("[%s]", strings.ReplaceAll(string(run.Status), "_", " "))
}

func timeInfo(run *model.Run, now time.Time) string {
	switch run.Status {
	case model.RunStatusCompleted:
		return fmt.Sprintf("took %s, %s", formatDuration(run.Duration()), formatAgo(now.Sub(run.UpdatedAt)))
	case model.RunStatusInProgress:
		if run.StartedAt.IsZero() {
			return "running"
		}
		return fmt.Sprintf("running for %s", formatDuration(now.Sub(run.StartedAt)))
	default:
		return "waiting"
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(time.Second).String()
}

func formatAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
