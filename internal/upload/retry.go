package upload

import (
	"context"
	"io"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

// Ensure RetryUploader implements Uploader interface.
var _ Uploader = (*RetryUploader)(nil)

// Wraps every operation of another uploader in a backoff loop
type RetryUploader struct {
	uploader Uploader
	backoff  func() retry.Backoff
}

func NewRetryUploaderBackoff(uploader Uploader, backoff func() retry.Backoff) *RetryUploader {
	return &RetryUploader{
		uploader: uploader,
		backoff:  backoff,
	}
}

// Short bounded backoff; archiving runs after the outcome is already on screen
func NewRetryUploader(uploader Uploader) *RetryUploader {
	return &RetryUploader{
		uploader: uploader,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(500 * time.Millisecond)
			b = retry.WithMaxRetries(4, b)
			return retry.WithMaxDuration(30*time.Second, b)
		},
	}
}

// Runs `op` until it succeeds or the backoff gives up. Every error from `op` is retried.
func attempt[T any](
	ctx context.Context,
	backoff retry.Backoff,
	name string,
	op func(ctx context.Context) (T, error),
) (T, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	var out T
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, name+".Retry")
		defer span.End()

		var err error
		out, err = op(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "attempt failed")
			return retry.RetryableError(err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "attempt succeeded")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gave up retrying")
		return out, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "succeeded")
	return out, nil
}

func (r *RetryUploader) Exists(ctx context.Context, key string) (bool, error) {
	return attempt(ctx, r.backoff(), "RetryUploader.Exists", func(ctx context.Context) (bool, error) {
		return r.uploader.Exists(ctx, key)
	})
}

func (r *RetryUploader) Location(ctx context.Context) (string, error) {
	return attempt(ctx, r.backoff(), "RetryUploader.Location", r.uploader.Location)
}

func (r *RetryUploader) Upload(
	ctx context.Context,
	reader io.ReadSeeker,
	length int64,
	key string,
	contentType string,
) error {
	_, err := attempt(ctx, r.backoff(), "RetryUploader.Upload", func(ctx context.Context) (struct{}, error) {
		// a failed attempt may have consumed part of the reader
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, r.uploader.Upload(ctx, reader, length, key, contentType)
	})
	return err
}
