package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/robfig/cron/v3"
)

type WatchConfig struct {
	Repo            model.Repository
	Interval        time.Duration
	DeploymentsOnly bool
	Conclusion      string
}

// WatchUseCase refreshes the run list on a schedule and fires hooks for runs
// that complete while being watched. Each refresh is an independent ListRuns
// call; the only state kept between refreshes is the last seen status per
// run ID.
type WatchUseCase struct {
	github     interfaces.GitHubService
	classifier *RunClassifier
	display    interfaces.WatchDisplay
	hooks      interfaces.HookExecutor
	config     WatchConfig

	mu         sync.Mutex
	knownRuns  map[int64]model.RunStatus
	lastUpdate time.Time
}

type WatchUseCaseOptions struct {
	GitHub     interfaces.GitHubService
	Classifier *RunClassifier
	Display    interfaces.WatchDisplay
	Hooks      interfaces.HookExecutor
	Config     WatchConfig
}

func NewWatchUseCase(opts WatchUseCaseOptions) *WatchUseCase {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewRunClassifier(nil)
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NewHookExecutor(nil)
	}
	config := opts.Config
	if config.Interval <= 0 {
		config.Interval = model.DefaultPollInterval
	}
	if config.Conclusion == "" {
		config.Conclusion = model.FilterAll
	}

	return &WatchUseCase{
		github:     opts.GitHub,
		classifier: classifier,
		display:    opts.Display,
		hooks:      hooks,
		config:     config,
		knownRuns:  make(map[int64]model.RunStatus),
	}
}

// Execute refreshes immediately and then on every interval until ctx is
// cancelled. Pending hook actions are awaited before returning.
func (u *WatchUseCase) Execute(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	logger.Debug("starting watch",
		slog.String("repo", u.config.Repo.FullName()),
		slog.Duration("interval", u.config.Interval),
		slog.Bool("deployments_only", u.config.DeploymentsOnly),
	)

	if err := u.refresh(ctx); err != nil && isFatalWatchError(err) {
		return err
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", u.config.Interval), func() {
		_ = u.refresh(ctx)
	}); err != nil {
		return domain.ErrConfiguration.Wrap(err, goerr.V("interval", u.config.Interval))
	}

	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()

	u.hooks.WaitForCompletion()
	logger.Debug("watch stopped", slog.String("repo", u.config.Repo.FullName()))
	return nil
}

// refresh performs one poll. Failures are shown and logged; the next tick
// tries again.
func (u *WatchUseCase) refresh(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	runs, err := u.github.ListRuns(ctx, u.config.Repo)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Error("failed to list runs",
			slog.String("repo", u.config.Repo.FullName()),
			slog.String("error", err.Error()),
		)
		if u.display != nil {
			u.display.ShowError(err)
		}
		return err
	}

	if u.config.DeploymentsOnly {
		runs = u.classifier.Deployments(runs)
	}

	events := u.detectCompletions(runs)

	visible := ByConclusion(runs, u.config.Conclusion)
	if u.display != nil {
		u.display.ShowRefresh(visible, Summarize(visible), u.lastRefresh(), u.config.Interval)
	}

	for _, event := range events {
		if err := u.hooks.Execute(ctx, event); err != nil {
			logger.Warn("failed to execute hooks",
				slog.Int64("run_id", event.Run.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// detectCompletions records the status of every run and returns events for
// runs previously seen in a non-completed state that are now completed.
func (u *WatchUseCase) detectCompletions(runs []*model.Run) []model.RunEvent {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.lastUpdate = time.Now()

	var events []model.RunEvent
	for _, run := range runs {
		previous, seen := u.knownRuns[run.ID]
		u.knownRuns[run.ID] = run.Status

		if !seen || previous == model.RunStatusCompleted || run.Status != model.RunStatusCompleted {
			continue
		}

		var eventType model.HookEvent
		switch run.Conclusion {
		case model.RunConclusionSuccess:
			eventType = model.HookRunSuccess
		case model.RunConclusionFailure, model.RunConclusionTimedOut:
			eventType = model.HookRunFailure
		default:
			continue
		}

		events = append(events, model.RunEvent{
			Type:       eventType,
			Repository: u.config.Repo.FullName(),
			Run:        run,
		})
	}

	return events
}

func (u *WatchUseCase) lastRefresh() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastUpdate
}

// isFatalWatchError reports errors that polling again will not fix.
func isFatalWatchError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAccessDenied)
}
