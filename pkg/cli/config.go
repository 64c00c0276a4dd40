package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Config holds the global flag values of a command invocation.
type Config struct {
	Token      string
	Repo       string
	ConfigPath string
	BaseURL    string
	Debug      bool
	Verbose    bool
}

func DefineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "GitHub token (optional; raises the API rate limit and grants access to private repositories)",
			Sources: cli.EnvVars("GITHUB_TOKEN", "OCTODASH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Target repository in owner/name form",
			Sources: cli.EnvVars("OCTODASH_REPO"),
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Path to config file",
			Sources: cli.EnvVars("OCTODASH_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "GitHub API base URL (for GitHub Enterprise)",
			Sources: cli.EnvVars("OCTODASH_BASE_URL"),
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable verbose logging",
		},
	}
}

// configFromCommand reads the global flags. The token falls back to the
// environment so that values loaded from .env after flag parsing apply.
func configFromCommand(cmd *cli.Command) *Config {
	token := cmd.String("token")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	return &Config{
		Token:      token,
		Repo:       cmd.String("repo"),
		ConfigPath: cmd.String("config"),
		BaseURL:    cmd.String("base-url"),
		Debug:      cmd.Bool("debug"),
		Verbose:    cmd.Bool("verbose"),
	}
}

// LogLevel maps the verbosity flags to a slog level. Warnings only by default.
func (c *Config) LogLevel() slog.Level {
	switch {
	case c.Debug:
		return slog.LevelDebug
	case c.Verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// LoadFileConfig reads the config file named by --config, falling back to a
// project file in dir and then to the user config.
func (c *Config) LoadFileConfig(ctx context.Context, svc interfaces.ConfigService, dir string) (*model.Config, error) {
	logger := ctxlog.From(ctx)

	if c.ConfigPath != "" {
		return svc.Load(c.ConfigPath)
	}

	cfg, path, err := svc.LoadFromDirectory(dir)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("using project config", slog.String("path", path))
		return cfg, nil
	}

	return svc.LoadDefault()
}

// ApplyTo overrides file settings with flag values.
func (c *Config) ApplyTo(cfg *model.Config) {
	if c.BaseURL != "" {
		cfg.GitHub.BaseURL = c.BaseURL
	}
}

// RepositorySources are consulted in order when --repo is not given.
type RepositorySources struct {
	File     *model.Config
	Locator  interfaces.RepositoryLocator
	Dir      string
	Remember interface {
		LoadRepository(ctx context.Context) (*model.Repository, error)
	}
}

// ResolveRepository picks the target repository from the flag, the config
// file, the git remote of Dir, and finally the remembered repository.
func (c *Config) ResolveRepository(ctx context.Context, src RepositorySources) (model.Repository, error) {
	logger := ctxlog.From(ctx)

	if c.Repo != "" {
		repo, err := model.ParseRepository(c.Repo)
		if err != nil {
			return model.Repository{}, domain.ErrConfiguration.Wrap(err)
		}
		return repo, nil
	}

	if src.File != nil && !src.File.Repository.IsZero() {
		if err := src.File.Repository.Validate(); err != nil {
			return model.Repository{}, domain.ErrConfiguration.Wrap(err)
		}
		return src.File.Repository, nil
	}

	if src.Locator != nil && src.Dir != "" {
		repo, err := src.Locator.GetRepositoryInfo(ctx, src.Dir)
		if err == nil {
			return *repo, nil
		}
		logger.Debug("no repository from git remote", slog.String("error", err.Error()))
	}

	if src.Remember != nil {
		repo, err := src.Remember.LoadRepository(ctx)
		if err != nil {
			logger.Warn("failed to load remembered repository", slog.String("error", err.Error()))
		} else if repo != nil && repo.Validate() == nil {
			return *repo, nil
		}
	}

	return model.Repository{}, domain.ErrConfiguration.Wrap(goerr.New("repository is not specified; use --repo owner/name"))
}

func pollInterval(cmd *cli.Command, cfg *model.Config) time.Duration {
	if cmd.IsSet("interval") {
		return cmd.Duration("interval")
	}
	if cfg.PollInterval > 0 {
		return cfg.PollInterval
	}
	return model.DefaultPollInterval
}

func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}
