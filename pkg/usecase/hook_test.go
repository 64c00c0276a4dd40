package usecase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/m-mizutani/octodash/pkg/usecase"
)

func TestHookExecutor(t *testing.T) {
	t.Run("Execute with nil config does not panic", func(t *testing.T) {
		executor := usecase.NewHookExecutor(nil)
		err := executor.Execute(context.Background(), newRunEvent(model.HookRunSuccess, model.RunConclusionSuccess))
		gt.NoError(t, err)
		executor.WaitForCompletion()
	})

	t.Run("Execute handles unknown action type gracefully", func(t *testing.T) {
		executor := usecase.NewHookExecutor(&model.HooksConfig{
			RunSuccess: []model.Action{
				{Type: "unknown", Data: map[string]any{}},
			},
		})

		err := executor.Execute(context.Background(), newRunEvent(model.HookRunSuccess, model.RunConclusionSuccess))
		gt.NoError(t, err)
		executor.WaitForCompletion()
	})

	t.Run("Actions are selected by event type", func(t *testing.T) {
		var successCount, failureCount int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload model.SlackPayload
			gt.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			switch payload.Text {
			case "success":
				atomic.AddInt32(&successCount, 1)
			case "failure":
				atomic.AddInt32(&failureCount, 1)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		slack := func(msg string) model.Action {
			return model.Action{
				Type: "slack",
				Data: map[string]any{"webhook_url": server.URL, "message": msg},
			}
		}

		executor := usecase.NewHookExecutor(&model.HooksConfig{
			RunSuccess: []model.Action{slack("success"), slack("success")},
			RunFailure: []model.Action{slack("failure")},
		})

		ctx := context.Background()
		gt.NoError(t, executor.Execute(ctx, newRunEvent(model.HookRunSuccess, model.RunConclusionSuccess)))
		gt.NoError(t, executor.Execute(ctx, newRunEvent(model.HookRunFailure, model.RunConclusionFailure)))
		executor.WaitForCompletion()

		gt.Equal(t, atomic.LoadInt32(&successCount), int32(2))
		gt.Equal(t, atomic.LoadInt32(&failureCount), int32(1))
	})
}
