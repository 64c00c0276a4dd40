package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

const defaultCommandTimeout = 30 * time.Second

type commandAction struct{}

// NewCommandAction creates a new CommandAction instance
func NewCommandAction() interfaces.ActionExecutor {
	return &commandAction{}
}

// Execute runs the configured command with OCTODASH_* variables describing
// the run.
func (c *commandAction) Execute(ctx context.Context, action model.Action, event model.RunEvent) error {
	logger := ctxlog.From(ctx)

	cmdAction, err := action.ToCommandAction()
	if err != nil {
		return goerr.Wrap(err, "failed to parse command action")
	}

	runEnv := runEventEnv(event)
	command := expandRunVars(cmdAction.Command, runEnv)
	args := make([]string, len(cmdAction.Args))
	for i, arg := range cmdAction.Args {
		args[i] = expandRunVars(arg, runEnv)
	}

	env := os.Environ()
	for key, value := range runEnv {
		env = append(env, key+"="+value)
	}
	env = append(env, cmdAction.Env...)

	timeout := cmdAction.Timeout
	if timeout == 0 {
		timeout = defaultCommandTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, command, args...) // #nosec G204 - command is from config file
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Executing command",
		slog.String("command", command),
		slog.Any("args", args),
		slog.Duration("timeout", timeout),
	)

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return goerr.New("command timed out", goerr.V("command", command), goerr.V("timeout", timeout))
		}
		return goerr.Wrap(err, "command failed",
			goerr.V("command", command),
			goerr.V("stderr", stderr.String()),
		)
	}

	if stdout.Len() > 0 {
		logger.Debug("Command stdout",
			slog.String("command", command),
			slog.String("stdout", stdout.String()),
		)
	}
	return nil
}

var runVarPattern = regexp.MustCompile(`\$\{(OCTODASH_[A-Z0-9_]+)\}|\$(OCTODASH_[A-Z0-9_]+)`)

// expandRunVars substitutes $OCTODASH_* and ${OCTODASH_*} references to run
// variables. Any other text, including other $ references, is kept as is so
// that shell scripts passed as arguments reach the shell untouched.
func expandRunVars(s string, runEnv map[string]string) string {
	return runVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := runVarPattern.FindStringSubmatch(ref)
		key := m[1]
		if key == "" {
			key = m[2]
		}
		if v, ok := runEnv[key]; ok {
			return v
		}
		return ref
	})
}

func runEventEnv(event model.RunEvent) map[string]string {
	env := map[string]string{
		"OCTODASH_EVENT_TYPE": string(event.Type),
		"OCTODASH_REPOSITORY": event.Repository,
	}
	if run := event.Run; run != nil {
		env["OCTODASH_RUN_ID"] = strconv.FormatInt(run.ID, 10)
		env["OCTODASH_RUN_NAME"] = run.Name
		env["OCTODASH_RUN_URL"] = run.URL
		env["OCTODASH_RUN_BRANCH"] = run.Branch
		env["OCTODASH_RUN_CONCLUSION"] = string(run.Conclusion)
		env["OCTODASH_RUN_DURATION"] = fmt.Sprintf("%d", int64(run.Duration().Seconds()))
	}
	return env
}
