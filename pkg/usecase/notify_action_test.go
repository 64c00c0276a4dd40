package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/m-mizutani/octodash/pkg/usecase"
)

func TestNotificationCommand(t *testing.T) {
	t.Run("macOS escapes quotes and plays sound", func(t *testing.T) {
		name, args, ok := usecase.NotificationCommand("darwin", `say "hi"`, `a\b`, true)
		gt.True(t, ok)
		gt.Equal(t, name, "osascript")
		gt.Equal(t, args, []string{"-e", `display notification "a\\b" with title "say \"hi\"" sound name "Glass"`})
	})

	t.Run("macOS without sound", func(t *testing.T) {
		_, args, _ := usecase.NotificationCommand("darwin", "t", "m", false)
		gt.Equal(t, args[1], `display notification "m" with title "t"`)
	})

	t.Run("linux", func(t *testing.T) {
		name, args, ok := usecase.NotificationCommand("linux", "title", "message", true)
		gt.True(t, ok)
		gt.Equal(t, name, "notify-send")
		gt.Equal(t, args, []string{"title", "message"})
	})

	t.Run("unsupported OS", func(t *testing.T) {
		_, _, ok := usecase.NotificationCommand("plan9", "t", "m", true)
		gt.False(t, ok)
	})
}

func TestNotifyAction(t *testing.T) {
	event := newRunEvent(model.HookRunFailure, model.RunConclusionFailure)

	t.Run("unsupported OS is a no-op", func(t *testing.T) {
		action := model.Action{Type: "notify", Data: map[string]interface{}{"message": "{{.Run.Name}} failed"}}
		err := usecase.NewNotifyActionFor("plan9").Execute(context.Background(), action, event)
		gt.NoError(t, err)
	})

	t.Run("invalid template", func(t *testing.T) {
		action := model.Action{Type: "notify", Data: map[string]interface{}{"message": "{{.Run.Name"}}
		err := usecase.NewNotifyActionFor("plan9").Execute(context.Background(), action, event)
		gt.Error(t, err)
	})

	t.Run("missing message", func(t *testing.T) {
		action := model.Action{Type: "notify", Data: map[string]interface{}{}}
		err := usecase.NewNotifyActionFor("plan9").Execute(context.Background(), action, event)
		gt.Error(t, err)
	})
}
