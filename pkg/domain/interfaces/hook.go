package interfaces

import (
	"context"

	"github.com/m-mizutani/octodash/pkg/domain/model"
)

// HookExecutor executes hooks based on run events
type HookExecutor interface {
	Execute(ctx context.Context, event model.RunEvent) error
	// WaitForCompletion waits for all pending actions to complete.
	// This should be called only when the process is about to exit.
	WaitForCompletion()
}

// ActionExecutor executes a specific action
type ActionExecutor interface {
	Execute(ctx context.Context, action model.Action, event model.RunEvent) error
}
