package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"golang.org/x/sync/errgroup"
)

const defaultReportConcurrency = 4

// ReportUseCase recovers test summaries from run artifacts.
type ReportUseCase struct {
	github      interfaces.GitHubService
	resolver    *ArtifactResolver
	concurrency int
}

type ReportUseCaseOptions struct {
	GitHub         interfaces.GitHubService
	ArtifactTokens []string
	// Concurrency bounds parallel lookups in Summaries.
	Concurrency int
}

func NewReportUseCase(opts ReportUseCaseOptions) *ReportUseCase {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultReportConcurrency
	}
	return &ReportUseCase{
		github:      opts.GitHub,
		resolver:    NewArtifactResolver(opts.ArtifactTokens),
		concurrency: concurrency,
	}
}

// ExtractJSONMember downloads artifact and returns its first JSON member.
func (u *ReportUseCase) ExtractJSONMember(ctx context.Context, artifact *model.Artifact) ([]byte, error) {
	archive, err := u.github.DownloadArtifact(ctx, artifact)
	if err != nil {
		return nil, err
	}
	return ExtractJSONMember(ctx, archive)
}

// TestSummary runs the whole chain for one run: artifact index, selection,
// download, extraction and decoding. A run without a test artifact yields
// domain.ErrNotFound.
func (u *ReportUseCase) TestSummary(ctx context.Context, repo model.Repository, runID int64) (*model.RunSummary, error) {
	logger := ctxlog.From(ctx)

	artifacts, err := u.github.ListArtifacts(ctx, repo, runID)
	if err != nil {
		return nil, err
	}

	artifact, err := u.resolver.Select(artifacts)
	if err != nil {
		return nil, goerr.Wrap(err, "no test report for run", goerr.V("run_id", runID))
	}
	logger.Debug("selected test artifact",
		slog.Int64("run_id", runID),
		slog.String("artifact", artifact.Name),
	)

	data, err := u.ExtractJSONMember(ctx, artifact)
	if err != nil {
		return nil, err
	}

	summary, err := DecodeSummary(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode test report",
			goerr.V("run_id", runID),
			goerr.V("artifact", artifact.Name),
		)
	}

	return &model.RunSummary{
		Artifact: artifact,
		Summary:  summary,
	}, nil
}

// Summaries looks up the test summary of each run concurrently. The result is
// aligned with runs; a failed lookup is reported in that entry's Err and does
// not affect the others.
func (u *ReportUseCase) Summaries(ctx context.Context, repo model.Repository, runs []*model.Run) []*model.RunSummary {
	results := make([]*model.RunSummary, len(runs))

	var g errgroup.Group
	g.SetLimit(u.concurrency)

	for i, run := range runs {
		if run == nil {
			results[i] = &model.RunSummary{Err: domain.ErrNotFound.Wrap(goerr.New("run is nil"))}
			continue
		}
		g.Go(func() error {
			result, err := u.TestSummary(ctx, repo, run.ID)
			if err != nil {
				results[i] = &model.RunSummary{Run: run, Err: err}
				return nil
			}
			result.Run = run
			results[i] = result
			return nil
		})
	}

	_ = g.Wait() // errors are embedded in results, not returned

	return results
}
