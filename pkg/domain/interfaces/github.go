package interfaces

import (
	"context"

	"github.com/m-mizutani/octodash/pkg/domain/model"
)

// GitHubService is the transport to the Actions REST API. Implementations
// hold the credential; owner and repository are supplied per call.
type GitHubService interface {
	ListRuns(ctx context.Context, repo model.Repository) ([]*model.Run, error)
	ListArtifacts(ctx context.Context, repo model.Repository, runID int64) ([]*model.Artifact, error)
	DownloadArtifact(ctx context.Context, artifact *model.Artifact) ([]byte, error)
}

// RepositoryLocator resolves the GitHub repository of a local checkout
type RepositoryLocator interface {
	GetRepositoryInfo(ctx context.Context, repoPath string) (*model.Repository, error)
}
