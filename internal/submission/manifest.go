package submission

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/hash"
	"github.com/gtcs8803/submit/internal/identifier"
	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/types"
	"github.com/gtcs8803/submit/internal/vcs"
)

// Describes the file set of a submission. Fails when a required file is missing.
//
// Git provenance is best effort and left out when Dir is not inside a repository.
func BuildManifest(ctx context.Context, opts Options) (*types.Manifest, error) {
	ctx, span := tracer.Start(ctx, "BuildManifest", trace.WithAttributes(
		attribute.String("quiz", opts.QuizID),
		attribute.Int("files", len(opts.Filenames)),
	))
	defer span.End()

	manifest := &types.Manifest{
		CourseID:    opts.CourseID,
		QuizID:      opts.QuizID,
		Environment: opts.Environment,
		Provider:    opts.Provider,
		Files:       make([]types.ManifestFile, 0, len(opts.Filenames)),
	}

	var missing []error
	for _, name := range opts.Filenames {
		path := filepath.Join(opts.Dir, name)

		content, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingFile, path))
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read file")
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		manifest.Files = append(manifest.Files, types.ManifestFile{
			Name:     name,
			Size:     int64(len(content)),
			SHA256:   hash.Buffer(content),
			Language: identifier.GetLanguage(name, content).String(),
		})
	}

	if err := errors.Join(missing...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing required files")
		return nil, err
	}

	rev, err := vcs.Describe(opts.Dir)
	if err != nil {
		logger.Logger.WarnContext(ctx, "could not describe git revision", "dir", opts.Dir, "error", err)
	} else if rev != nil {
		manifest.Commit = &rev.Commit
		manifest.Dirty = &rev.Dirty
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "built manifest")
	return manifest, nil
}
