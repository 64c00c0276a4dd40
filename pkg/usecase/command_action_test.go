package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/m-mizutani/octodash/pkg/usecase"
)

func TestCommandAction(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell commands are not available on windows")
	}

	event := newRunEvent(model.HookRunSuccess, model.RunConclusionSuccess)

	t.Run("Execute simple command", func(t *testing.T) {
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "echo",
				"args":    []string{"test"},
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.NoError(t, err)
	})

	t.Run("Run variables are exported", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "env.txt")
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "sh",
				"args": []interface{}{
					"-c",
					`echo "$OCTODASH_EVENT_TYPE $OCTODASH_REPOSITORY $OCTODASH_RUN_ID $OCTODASH_RUN_NAME $OCTODASH_RUN_CONCLUSION $OCTODASH_RUN_BRANCH" > ` + outFile,
				},
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.NoError(t, err)

		data, err := os.ReadFile(outFile)
		gt.NoError(t, err)
		gt.Equal(t, strings.TrimSpace(string(data)), "run_success test/repo 123 deploy-prod success main")
	})

	t.Run("Run variables are expanded in args", func(t *testing.T) {
		dir := t.TempDir()
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "touch",
				"args":    []string{filepath.Join(dir, "${OCTODASH_RUN_ID}.done")},
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.NoError(t, err)

		_, err = os.Stat(filepath.Join(dir, "123.done"))
		gt.NoError(t, err)
	})

	t.Run("Command with custom environment", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "custom.txt")
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "sh",
				"args":    []string{"-c", "echo $CUSTOM_VAR > " + outFile},
				"env":     []string{"CUSTOM_VAR=custom_value"},
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.NoError(t, err)

		data, err := os.ReadFile(outFile)
		gt.NoError(t, err)
		gt.Equal(t, strings.TrimSpace(string(data)), "custom_value")
	})

	t.Run("Shell parameters are left to the shell", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "params.txt")
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "sh",
				"args": []string{
					"-c",
					`set -- a b; echo "$1 ${2} [$OCTODASH_UNSET_FOR_TEST] $OCTODASH_RUN_ID" > ` + outFile,
				},
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.NoError(t, err)

		data, err := os.ReadFile(outFile)
		gt.NoError(t, err)
		gt.Equal(t, strings.TrimSpace(string(data)), "a b [] 123")
	})

	t.Run("Unknown run variables are kept verbatim", func(t *testing.T) {
		dir := t.TempDir()
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "touch",
				"args":    []string{filepath.Join(dir, "$OCTODASH_NOPE-${OCTODASH_RUN_ID}")},
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.NoError(t, err)

		_, err = os.Stat(filepath.Join(dir, "$OCTODASH_NOPE-123"))
		gt.NoError(t, err)
	})

	t.Run("Command with timeout", func(t *testing.T) {
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "sleep",
				"args":    []string{"10"},
				"timeout": "100ms",
			},
		}

		start := time.Now()
		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.Error(t, err)
		gt.True(t, time.Since(start) < 5*time.Second)
	})

	t.Run("Invalid command", func(t *testing.T) {
		action := model.Action{
			Type: "command",
			Data: map[string]interface{}{
				"command": "/non/existent/command",
			},
		}

		err := usecase.NewCommandAction().Execute(context.Background(), action, event)
		gt.Error(t, err)
	})

	t.Run("Invalid action data", func(t *testing.T) {
		testCases := []struct {
			name string
			data map[string]interface{}
		}{
			{name: "missing command", data: map[string]interface{}{}},
			{name: "empty command", data: map[string]interface{}{"command": ""}},
			{name: "invalid args type", data: map[string]interface{}{"command": "echo", "args": "not an array"}},
			{name: "invalid timeout format", data: map[string]interface{}{"command": "echo", "timeout": "invalid"}},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				action := model.Action{Type: "command", Data: tc.data}
				err := usecase.NewCommandAction().Execute(context.Background(), action, event)
				gt.Error(t, err)
			})
		}
	})
}
