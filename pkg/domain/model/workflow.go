package model

import "time"

type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
)

// RunConclusion is empty while the run has not completed.
type RunConclusion string

const (
	RunConclusionSuccess   RunConclusion = "success"
	RunConclusionFailure   RunConclusion = "failure"
	RunConclusionCancelled RunConclusion = "cancelled"
	RunConclusionSkipped   RunConclusion = "skipped"
	RunConclusionTimedOut  RunConclusion = "timed_out"
)

// FilterAll disables a status or conclusion filter.
const FilterAll = "all"

type Actor struct {
	Login      string `json:"login"`
	AvatarURL  string `json:"avatar_url"`
	ProfileURL string `json:"profile_url"`
}

// Run is one execution of a workflow. It is built from a server response
// and never modified afterwards.
type Run struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Path       string        `json:"path,omitempty"`
	Status     RunStatus     `json:"status"`
	Conclusion RunConclusion `json:"conclusion,omitempty"`
	Branch     string        `json:"branch"`
	URL        string        `json:"url"`
	Actor      Actor         `json:"actor"`
	CreatedAt  time.Time     `json:"created_at"`
	StartedAt  time.Time     `json:"started_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (r *Run) HasConclusion() bool {
	return r.Conclusion != ""
}

// Duration is the time between start and last update. It is zero when either
// timestamp is unknown, as for queued runs.
func (r *Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.UpdatedAt.IsZero() {
		return 0
	}
	return r.UpdatedAt.Sub(r.StartedAt)
}

// RunStats aggregates a run collection the way the dashboard header shows it.
type RunStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failure int `json:"failure"`
	Other   int `json:"other"`
}
