package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/api"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/m-mizutani/octodash/pkg/usecase"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// session bundles what every subcommand needs after global setup.
type session struct {
	config  *model.Config
	repo    model.Repository
	github  *usecase.GitHubService
	display *DisplayManager
}

// before loads .env and attaches the logger to ctx. It runs ahead of every
// subcommand.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := loadDotEnv(); err != nil {
		return ctx, err
	}

	cfg := configFromCommand(cmd)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	return ctxlog.With(ctx, logger), nil
}

// loadDotEnv reads .env from the working directory into the process
// environment. A missing file is fine.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.ErrConfiguration.Wrap(err, goerr.V("file", ".env"))
	}
	return nil
}

func newSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	logger := ctxlog.From(ctx)
	flags := configFromCommand(cmd)
	dir := workingDir()

	fileConfig, err := flags.LoadFileConfig(ctx, usecase.NewConfigService(), dir)
	if err != nil {
		return nil, err
	}
	flags.ApplyTo(fileConfig)

	storage := usecase.NewPreferenceStorage()
	repo, err := flags.ResolveRepository(ctx, RepositorySources{
		File:     fileConfig,
		Locator:  usecase.NewGitRepositoryLocator(),
		Dir:      dir,
		Remember: storage,
	})
	if err != nil {
		return nil, err
	}

	if err := storage.SaveRepository(ctx, repo); err != nil {
		logger.Warn("failed to remember repository", slog.String("error", err.Error()))
	}

	github, err := usecase.NewGitHubService(usecase.GitHubServiceOptions{
		Token:            flags.Token,
		BaseURL:          fileConfig.GitHub.BaseURL,
		MaxDownloadBytes: fileConfig.Download.MaxBytes,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("resolved settings",
		slog.String("repo", repo.FullName()),
		slog.Bool("authenticated", flags.Token != ""),
	)

	return &session{
		config:  fileConfig,
		repo:    repo,
		github:  github,
		display: NewDisplayManager(os.Stdout, os.Stderr, repo.FullName(), isTerminal(os.Stdout)),
	}, nil
}

func runListRuns(ctx context.Context, cmd *cli.Command) error {
	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	runs, err := sess.github.ListRuns(ctx, sess.repo)
	if err != nil {
		return err
	}

	runs = usecase.ByStatus(runs, cmd.String("status"))
	runs = usecase.ByConclusion(runs, cmd.String("conclusion"))
	sess.display.ShowRuns(limitRuns(runs, int(cmd.Int("limit"))), usecase.Summarize(runs))
	return nil
}

func runListDeployments(ctx context.Context, cmd *cli.Command) error {
	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	runs, err := sess.github.ListRuns(ctx, sess.repo)
	if err != nil {
		return err
	}

	classifier := usecase.NewRunClassifier(sess.config.Classifier.DeploymentTokens)
	deployments := usecase.ByConclusion(classifier.Deployments(runs), cmd.String("conclusion"))
	sess.display.ShowRuns(limitRuns(deployments, int(cmd.Int("limit"))), usecase.Summarize(deployments))
	return nil
}

func runSummary(ctx context.Context, cmd *cli.Command) error {
	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	report := usecase.NewReportUseCase(usecase.ReportUseCaseOptions{
		GitHub:         sess.github,
		ArtifactTokens: sess.config.Classifier.ArtifactTokens,
		Concurrency:    int(cmd.Int("concurrency")),
	})

	if runID := cmd.Int64("run-id"); runID > 0 {
		result, err := report.TestSummary(ctx, sess.repo, runID)
		if err != nil {
			return err
		}
		result.Run = &model.Run{ID: runID, Name: "run"}
		sess.display.ShowSummary(result)
		return nil
	}

	runs, err := sess.github.ListRuns(ctx, sess.repo)
	if err != nil {
		return err
	}

	classifier := usecase.NewRunClassifier(sess.config.Classifier.DeploymentTokens)
	deployments := limitRuns(classifier.Deployments(runs), int(cmd.Int("latest")))
	if len(deployments) == 0 {
		sess.display.ShowRuns(nil, model.RunStats{})
		return nil
	}

	for _, result := range report.Summaries(ctx, sess.repo, deployments) {
		sess.display.ShowSummary(result)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	sess, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	conclusion := cmd.String("conclusion")
	watch := usecase.NewWatchUseCase(usecase.WatchUseCaseOptions{
		GitHub:     sess.github,
		Classifier: usecase.NewRunClassifier(sess.config.Classifier.DeploymentTokens),
		Display:    sess.display,
		Hooks:      usecase.NewHookExecutor(&sess.config.Hooks),
		Config: usecase.WatchConfig{
			Repo:            sess.repo,
			Interval:        pollInterval(cmd, sess.config),
			DeploymentsOnly: cmd.Bool("deployments"),
			Conclusion:      conclusion,
		},
	})

	return watch.Execute(ctx)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.From(ctx)
	flags := configFromCommand(cmd)

	fileConfig, err := flags.LoadFileConfig(ctx, usecase.NewConfigService(), workingDir())
	if err != nil {
		return err
	}
	flags.ApplyTo(fileConfig)

	github, err := usecase.NewGitHubService(usecase.GitHubServiceOptions{
		Token:            flags.Token,
		BaseURL:          fileConfig.GitHub.BaseURL,
		MaxDownloadBytes: fileConfig.Download.MaxBytes,
	})
	if err != nil {
		return err
	}

	server := api.NewServer(api.ServerOptions{
		GitHub:     github,
		Classifier: usecase.NewRunClassifier(fileConfig.Classifier.DeploymentTokens),
		Report: usecase.NewReportUseCase(usecase.ReportUseCaseOptions{
			GitHub:         github,
			ArtifactTokens: fileConfig.Classifier.ArtifactTokens,
		}),
		AllowedOrigins: fileConfig.Server.AllowedOrigins,
	})

	addr := fileConfig.Server.Addr
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "API server failed", goerr.V("addr", addr))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down API server")
	}
	logger.Info("API server stopped")
	return nil
}

func limitRuns(runs []*model.Run, limit int) []*model.Run {
	if limit > 0 && len(runs) > limit {
		return runs[:limit]
	}
	return runs
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}
