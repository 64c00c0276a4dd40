package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

type notifyAction struct {
	goos string
}

// NewNotifyAction creates a new NotifyAction instance
func NewNotifyAction() interfaces.ActionExecutor {
	return &notifyAction{goos: runtime.GOOS}
}

// Execute shows a desktop notification for the run event
func (n *notifyAction) Execute(ctx context.Context, action model.Action, event model.RunEvent) error {
	logger := ctxlog.From(ctx)

	notify, err := action.ToNotifyAction()
	if err != nil {
		return goerr.Wrap(err, "failed to parse notify action")
	}

	title, err := renderRunTemplate(notify.Title, event)
	if err != nil {
		return err
	}
	message, err := renderRunTemplate(notify.Message, event)
	if err != nil {
		return err
	}

	playSound := notify.Sound == nil || *notify.Sound
	name, args, ok := notificationCommand(n.goos, title, message, playSound)
	if !ok {
		logger.Warn("notifications not supported on this OS", slog.String("os", n.goos))
		return nil
	}

	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 - arguments are built from config data
	if out, err := cmd.CombinedOutput(); err != nil {
		return goerr.Wrap(err, "failed to send notification",
			goerr.V("command", name),
			goerr.V("os", n.goos),
			goerr.V("output", string(out)),
		)
	}

	logger.Debug("notification sent",
		slog.String("title", title),
		slog.String("event", string(event.Type)),
	)
	return nil
}

// notificationCommand returns the command line that shows a notification on
// goos. ok is false for unsupported systems.
func notificationCommand(goos, title, message string, playSound bool) (name string, args []string, ok bool) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(message), escapeAppleScript(title))
		if playSound {
			script += ` sound name "Glass"`
		}
		return "osascript", []string{"-e", script}, true

	case "linux":
		return "notify-send", []string{title, message}, true

	case "windows":
		script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms
$n = New-Object System.Windows.Forms.NotifyIcon
$n.Icon = [System.Drawing.SystemIcons]::Information
$n.BalloonTipTitle = '%s'
$n.BalloonTipText = '%s'
$n.Visible = $true
$n.ShowBalloonTip(10000)`, escapePS(title), escapePS(message))
		return "powershell", []string{"-NoProfile", "-Command", script}, true

	default:
		return "", nil, false
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func escapePS(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
