package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/types"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/internal/artifact")

// Second resolution timestamp used in artifact filenames
const TimestampLayout = "2006-01-02-15-04-05"

const indent = "    "

// `<prefix>-<kind>-<timestamp>.json`
func Filename(prefix string, kind types.ArtifactKind, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%s.json", prefix, kind, ts.Format(TimestampLayout))
}

// Re-indents a payload with 4 spaces without re-encoding it, so key order and values are kept
func Format(payload json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(payload), "", indent); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	return buf.Bytes(), nil
}

// Writes the formatted payload to dir/name in one step: a temp file in dir is renamed into place,
// so readers never see a partial artifact.
//
// Returns the path of the written file.
func Write(ctx context.Context, dir, name string, payload json.RawMessage) (string, error) {
	path := filepath.Join(dir, name)
	_, span := tracer.Start(ctx, "Write", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	content, err := Format(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to format payload")
		return "", err
	}

	if err := writeAtomic(dir, path, content); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write artifact")
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	span.SetAttributes(attribute.Int("bytes", len(content)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wrote artifact")
	return path, nil
}

func writeAtomic(dir, path string, content []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Sync(); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
