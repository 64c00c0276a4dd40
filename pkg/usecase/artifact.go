package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/octodash/pkg/domain"
	"github.com/m-mizutani/octodash/pkg/domain/model"
)

// maxJSONMemberBytes bounds the decompressed size of the report member.
const maxJSONMemberBytes = 64 << 20

// ArtifactResolver picks the artifact that carries the test report.
type ArtifactResolver struct {
	tokens []string
}

// NewArtifactResolver uses model.DefaultArtifactTokens when tokens is empty.
func NewArtifactResolver(tokens []string) *ArtifactResolver {
	if len(tokens) == 0 {
		tokens = model.DefaultArtifactTokens
	}
	return &ArtifactResolver{tokens: normalizeTokens(tokens)}
}

var defaultResolver = NewArtifactResolver(nil)

// SelectTestArtifact selects with the default artifact tokens.
func SelectTestArtifact(artifacts []*model.Artifact) (*model.Artifact, error) {
	return defaultResolver.Select(artifacts)
}

// Select returns the first artifact, in index order, whose name contains one
// of the tokens. When several qualify the index order decides; no other
// tie-break is applied.
func (r *ArtifactResolver) Select(artifacts []*model.Artifact) (*model.Artifact, error) {
	for _, artifact := range artifacts {
		if artifact != nil && matchesAny(artifact.Name, r.tokens) {
			return artifact, nil
		}
	}
	return nil, domain.ErrNotFound.Wrap(goerr.New("no test artifact found"),
		goerr.V("artifacts", len(artifacts)),
		goerr.V("tokens", r.tokens),
	)
}

// ExtractJSONMember opens archive as a zip file and returns the content of
// its first member whose name ends in ".json". Members are visited in
// central directory order, so with several JSON members the pick depends on
// how the archive was written.
func ExtractJSONMember(ctx context.Context, archive []byte) ([]byte, error) {
	logger := ctxlog.From(ctx)

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, domain.ErrFormat.Wrap(err, goerr.V("bytes", len(archive)))
	}

	var candidates []*zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			candidates = append(candidates, f)
		}
	}

	if len(candidates) == 0 {
		return nil, domain.ErrNotFound.Wrap(goerr.New("no JSON member in archive"),
			goerr.V("members", len(reader.File)),
		)
	}
	if len(candidates) > 1 {
		logger.Debug("archive has several JSON members, using the first",
			slog.String("member", candidates[0].Name),
			slog.Int("candidates", len(candidates)),
		)
	}

	return readMember(candidates[0])
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, domain.ErrFormat.Wrap(err, goerr.V("member", f.Name))
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxJSONMemberBytes+1))
	if err != nil {
		return nil, domain.ErrFormat.Wrap(err, goerr.V("member", f.Name))
	}
	if len(data) > maxJSONMemberBytes {
		return nil, domain.ErrFormat.Wrap(goerr.New("archive member too large"),
			goerr.V("member", f.Name),
			goerr.V("limit", maxJSONMemberBytes),
		)
	}

	return data, nil
}
