package model

// HookEvent represents a type of run event
type HookEvent string

const (
	HookRunSuccess HookEvent = "run_success"
	HookRunFailure HookEvent = "run_failure"
)

// RunEvent is emitted by the watcher when a run it has seen before reaches
// the completed state.
type RunEvent struct {
	Type       HookEvent
	Repository string
	Run        *Run
}
