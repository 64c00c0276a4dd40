package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

type hookExecutor struct {
	config  *model.HooksConfig
	actions map[string]interfaces.ActionExecutor
	wg      sync.WaitGroup
}

// NewHookExecutor creates a new HookExecutor instance. A nil config runs
// nothing.
func NewHookExecutor(config *model.HooksConfig) interfaces.HookExecutor {
	return &hookExecutor{
		config: config,
		actions: map[string]interfaces.ActionExecutor{
			"slack":   NewSlackAction(),
			"command": NewCommandAction(),
			"notify":  NewNotifyAction(),
		},
	}
}

// Execute runs the actions configured for the event in the background
func (h *hookExecutor) Execute(ctx context.Context, event model.RunEvent) error {
	logger := ctxlog.From(ctx)

	for _, action := range h.getActionsForEvent(event.Type) {
		h.wg.Add(1)
		go func(a model.Action) {
			defer h.wg.Done()
			if err := h.executeAction(ctx, a, event); err != nil {
				logger.Warn("Failed to execute hook action",
					slog.String("type", a.Type),
					slog.String("event", string(event.Type)),
					slog.String("error", err.Error()),
				)
			}
		}(action)
	}

	return nil
}

func (h *hookExecutor) WaitForCompletion() {
	h.wg.Wait()
}

func (h *hookExecutor) getActionsForEvent(eventType model.HookEvent) []model.Action {
	if h.config == nil {
		return nil
	}

	switch eventType {
	case model.HookRunSuccess:
		return h.config.RunSuccess
	case model.HookRunFailure:
		return h.config.RunFailure
	default:
		return nil
	}
}

func (h *hookExecutor) executeAction(ctx context.Context, action model.Action, event model.RunEvent) error {
	executor, ok := h.actions[action.Type]
	if !ok {
		ctxlog.From(ctx).Warn("Unknown action type",
			slog.String("type", action.Type),
		)
		return nil
	}

	return executor.Execute(ctx, action, event)
}
