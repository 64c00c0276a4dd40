package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v74/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/interfaces"
	"github.com/m-mizutani/octodash/pkg/domain/model"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.github.com/"
	mediaType      = "application/vnd.github+json"
	runsPerPage    = 100
)

var _ interfaces.GitHubService = (*GitHubService)(nil)

// GitHubService talks to the Actions REST API. It keeps no per-call state,
// so one instance can serve concurrent calls for different repositories.
type GitHubService struct {
	client           *github.Client
	maxDownloadBytes int64
}

type GitHubServiceOptions struct {
	// Token is the optional bearer credential. Without it requests are
	// unauthenticated and subject to the lower rate limit.
	Token   string
	BaseURL string
	// Transport is the underlying round tripper; http.DefaultTransport if nil.
	Transport        http.RoundTripper
	MaxDownloadBytes int64
}

func NewGitHubService(opts GitHubServiceOptions) (*GitHubService, error) {
	rawURL := opts.BaseURL
	if rawURL == "" {
		rawURL = defaultBaseURL
	}
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.ErrConfiguration.Wrap(err, goerr.V("base_url", opts.BaseURL))
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, domain.ErrConfiguration.Wrap(goerr.New("base URL must be absolute"), goerr.V("base_url", opts.BaseURL))
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	var rt http.RoundTripper = base
	if opts.Token != "" {
		rt = &apiHostTransport{
			host: baseURL.Host,
			authed: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
				Base:   base,
			},
			base: base,
		}
	}

	client := github.NewClient(&http.Client{Transport: &acceptTransport{base: rt}})
	client.BaseURL = baseURL

	maxBytes := opts.MaxDownloadBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultMaxDownloadBytes
	}

	return &GitHubService{
		client:           client,
		maxDownloadBytes: maxBytes,
	}, nil
}

// ListRuns fetches every workflow run of repo, following the Link header
// page by page. A failure on any page discards what was collected so far.
func (s *GitHubService) ListRuns(ctx context.Context, repo model.Repository) ([]*model.Run, error) {
	logger := ctxlog.From(ctx)

	opts := &github.ListWorkflowRunsOptions{
		ListOptions: github.ListOptions{
			Page:    1,
			PerPage: runsPerPage,
		},
	}

	var runs []*model.Run
	// cursorURL is set once the server switches to next links without a page
	// number; from then on those links are fetched as is.
	var cursorURL string
	for pageNum := 1; ; pageNum++ {
		var page *github.WorkflowRuns
		var resp *github.Response
		var err error
		if cursorURL == "" {
			page, resp, err = s.client.Actions.ListRepositoryWorkflowRuns(ctx, repo.Owner, repo.Name, opts)
		} else {
			page, resp, err = s.fetchRunsPage(ctx, cursorURL)
		}
		if err != nil {
			return nil, wrapAPIError(resp, err,
				goerr.V("repo", repo.FullName()),
				goerr.V("page", pageNum),
			)
		}

		for _, run := range page.WorkflowRuns {
			runs = append(runs, convertRun(run))
		}

		logger.Debug("fetched workflow runs page",
			slog.String("repo", repo.FullName()),
			slog.Int("page", pageNum),
			slog.Int("count", len(page.WorkflowRuns)),
		)

		// An empty page ends the walk even if the server still advertises a
		// next page.
		if len(page.WorkflowRuns) == 0 {
			break
		}
		if cursorURL == "" && resp.NextPage != 0 {
			opts.Page++
			continue
		}

		next := nextLinkURL(resp)
		if next == "" || next == cursorURL {
			break
		}
		cursorURL = next
	}

	logger.Debug("fetched workflow runs",
		slog.String("repo", repo.FullName()),
		slog.Int("count", len(runs)),
	)

	return runs, nil
}

func (s *GitHubService) fetchRunsPage(ctx context.Context, rawURL string) (*github.WorkflowRuns, *github.Response, error) {
	req, err := s.client.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}

	page := new(github.WorkflowRuns)
	resp, err := s.client.Do(ctx, req, page)
	if err != nil {
		return nil, resp, err
	}
	return page, resp, nil
}

// nextLinkURL returns the target of the rel="next" entry of the Link header.
func nextLinkURL(resp *github.Response) string {
	if resp == nil || resp.Response == nil {
		return ""
	}
	for _, header := range resp.Header.Values("Link") {
		for _, link := range strings.Split(header, ",") {
			segments := strings.Split(strings.TrimSpace(link), ";")
			if len(segments) < 2 {
				continue
			}
			target := strings.TrimSpace(segments[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			for _, param := range segments[1:] {
				if strings.TrimSpace(param) == `rel="next"` {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}

// ListArtifacts fetches the artifact index of a run in a single request.
func (s *GitHubService) ListArtifacts(ctx context.Context, repo model.Repository, runID int64) ([]*model.Artifact, error) {
	list, resp, err := s.client.Actions.ListWorkflowRunArtifacts(ctx, repo.Owner, repo.Name, runID, nil)
	if err != nil {
		return nil, wrapAPIError(resp, err,
			goerr.V("repo", repo.FullName()),
			goerr.V("run_id", runID),
		)
	}

	artifacts := make([]*model.Artifact, 0, len(list.Artifacts))
	for _, a := range list.Artifacts {
		artifacts = append(artifacts, &model.Artifact{
			ID:          a.GetID(),
			Name:        a.GetName(),
			DownloadURL: a.GetArchiveDownloadURL(),
			SizeInBytes: a.GetSizeInBytes(),
			Expired:     a.GetExpired(),
		})
	}

	ctxlog.From(ctx).Debug("fetched artifacts",
		slog.String("repo", repo.FullName()),
		slog.Int64("run_id", runID),
		slog.Int("count", len(artifacts)),
	)

	return artifacts, nil
}

// DownloadArtifact fetches the archive payload of artifact into memory.
func (s *GitHubService) DownloadArtifact(ctx context.Context, artifact *model.Artifact) ([]byte, error) {
	if artifact == nil || artifact.DownloadURL == "" {
		return nil, domain.ErrNotFound.Wrap(goerr.New("artifact has no download URL"))
	}

	req, err := s.client.NewRequest(http.MethodGet, artifact.DownloadURL, nil)
	if err != nil {
		return nil, domain.ErrTransport.Wrap(err, goerr.V("url", artifact.DownloadURL))
	}

	resp, err := s.client.BareDo(ctx, req)
	if err != nil {
		return nil, wrapAPIError(resp, err,
			goerr.V("artifact", artifact.Name),
			goerr.V("artifact_id", artifact.ID),
		)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxDownloadBytes+1))
	if err != nil {
		return nil, domain.ErrTransport.Wrap(err, goerr.V("artifact", artifact.Name))
	}
	if int64(len(data)) > s.maxDownloadBytes {
		return nil, domain.ErrTransport.Wrap(goerr.New("artifact exceeds download limit"),
			goerr.V("artifact", artifact.Name),
			goerr.V("limit", s.maxDownloadBytes),
		)
	}

	ctxlog.From(ctx).Debug("downloaded artifact",
		slog.String("artifact", artifact.Name),
		slog.Int("bytes", len(data)),
	)

	return data, nil
}

func convertRun(run *github.WorkflowRun) *model.Run {
	actor := run.GetActor()
	return &model.Run{
		ID:         run.GetID(),
		Name:       run.GetName(),
		Path:       run.GetPath(),
		Status:     model.RunStatus(run.GetStatus()),
		Conclusion: model.RunConclusion(run.GetConclusion()),
		Branch:     run.GetHeadBranch(),
		URL:        run.GetHTMLURL(),
		Actor: model.Actor{
			Login:      actor.GetLogin(),
			AvatarURL:  actor.GetAvatarURL(),
			ProfileURL: actor.GetHTMLURL(),
		},
		CreatedAt: run.GetCreatedAt().Time,
		StartedAt: run.GetRunStartedAt().Time,
		UpdatedAt: run.GetUpdatedAt().Time,
	}
}

// wrapAPIError maps a go-github failure onto the domain error taxonomy.
func wrapAPIError(resp *github.Response, err error, opts ...goerr.Option) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
		opts = append(opts, goerr.V(domain.StatusKey, status))
	}

	var (
		rateErr   *github.RateLimitError
		abuseErr  *github.AbuseRateLimitError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr), status == http.StatusForbidden:
		return domain.ErrAccessDenied.Wrap(err, opts...)
	case status == http.StatusNotFound:
		return domain.ErrNotFound.Wrap(err, opts...)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return domain.ErrFormat.Wrap(err, opts...)
	default:
		return domain.ErrTransport.Wrap(err, opts...)
	}
}

// acceptTransport pins the Accept header of every request.
type acceptTransport struct {
	base http.RoundTripper
}

func (t *acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Accept", mediaType)
	return t.base.RoundTrip(r)
}

// apiHostTransport attaches the credential only to requests against the API
// host. Artifact downloads redirect to pre-signed storage URLs that must not
// receive it.
type apiHostTransport struct {
	host   string
	authed http.RoundTripper
	base   http.RoundTripper
}

func (t *apiHostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host == t.host {
		return t.authed.RoundTrip(req)
	}
	return t.base.RoundTrip(req)
}
