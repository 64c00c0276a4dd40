package cli

import (
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func NewCommand() *cli.Command {
	return &cli.Command{
		Name:    "octodash",
		Usage:   "GitHub Actions dashboard for the terminal",
		Version: "0.1.0",
		Description: `octodash lists workflow runs of a GitHub repository, picks out deployment runs,
and reads test summaries from the runs' test artifacts.

The repository is taken from --repo, the config file, the origin remote of the
current directory, or the last repository used, in that order.`,
		Flags:  DefineFlags(),
		Before: before,
		Commands: []*cli.Command{
			newRunsCommand(),
			newDeploymentsCommand(),
			newSummaryCommand(),
			newWatchCommand(),
			newServeCommand(),
			NewConfigCommand(),
		},
	}
}

func conclusionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "conclusion",
		Usage: "Only show runs with this conclusion (success, failure, cancelled, skipped, timed_out, or all)",
		Value: model.FilterAll,
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of runs to print (0 for no limit)",
		Value:   value,
	}
}

func newRunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List workflow runs",
		Flags: []cli.Flag{
			conclusionFlag(),
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (queued, in_progress, completed, or all)",
				Value: model.FilterAll,
			},
			limitFlag(20),
		},
		Action: runListRuns,
	}
}

func newDeploymentsCommand() *cli.Command {
	return &cli.Command{
		Name:   "deployments",
		Usage:  "List deployment runs",
		Flags:  []cli.Flag{conclusionFlag(), limitFlag(20)},
		Action: runListDeployments,
	}
}

func newSummaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Show test summaries from run artifacts",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "run-id",
				Usage: "Run to summarize; without it the latest deployment runs are summarized",
			},
			&cli.IntFlag{
				Name:  "latest",
				Usage: "Number of latest deployment runs to summarize",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Parallel artifact downloads",
				Value: 4,
			},
		},
		Action: runSummary,
	}
}

func newWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Refresh the run list periodically and run hooks when runs complete",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Polling interval (defaults to poll_interval in the config file)",
				Value:   model.DefaultPollInterval,
			},
			&cli.BoolFlag{
				Name:    "deployments",
				Aliases: []string{"d"},
				Usage:   "Only watch deployment runs",
			},
			conclusionFlag(),
		},
		Action: runWatch,
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.addr in the config file)",
				Value: model.DefaultServerAddr,
			},
		},
		Action: runServe,
	}
}
