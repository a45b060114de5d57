package upload

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/hash"
)

var tracer = otel.Tracer(
	"github.com/gtcs8803/submit/internal/upload",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Uploader

// Object storage that artifacts are archived to
type Uploader interface {
	// Create / overwrite the object named `key`
	Upload(ctx context.Context, reader io.ReadSeeker, length int64, key string, contentType string) error
	// Check if an object exists. Used to skip re-uploading identical content, not authoritative.
	Exists(ctx context.Context, key string) (bool, error)
	// Where objects end up, for logs and the audit trail
	Location(ctx context.Context) (string, error)
}

// Uploads a buffer under the SHA-256 of its contents (CAS)
//
// Seeks to 0 before hashing and uploading, and skips the upload when the key already exists.
func Hashed(
	ctx context.Context,
	u Uploader,
	reader io.ReadSeeker,
	length int64,
	contentType string,
) (string, error) {
	ctx, span := tracer.Start(ctx, "Hashed", trace.WithAttributes(
		attribute.Int64("length", length),
	))
	defer span.End()

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seek to start")
		return "", err
	}

	key, err := hash.Reader(ctx, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to hash reader")
		return "", err
	}
	span.SetAttributes(attribute.String("key", key))

	exists, err := u.Exists(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check if object exists")
		return "", err
	}

	if exists {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "found existing object")
		return key, nil
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seek to start")
		return "", err
	}

	if err := u.Upload(ctx, reader, length, key, contentType); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload object")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded object by hash")
	return key, nil
}

// Hashed upload of the file at `path`; content type follows the extension
func HashedFile(ctx context.Context, u Uploader, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "HashedFile", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open file")
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat file")
		return "", err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key, err := Hashed(ctx, u, f, stat.Size(), contentType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded file")
	return key, nil
}
