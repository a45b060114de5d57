package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure HTTPFetcher implements Fetcher interface.
var _ Fetcher = (*HTTPFetcher)(nil)

// Result payloads are plain JSON; anything past this is not a result
const DefaultMaxSize int64 = 64 << 20

var ErrTooLarge = errors.New("payload exceeds size limit")

// Downloads presigned result URLs. Bodies longer than maxSize fail while being read.
type HTTPFetcher struct {
	client  *retryablehttp.Client
	maxSize int64
}

func NewHTTPFetcher(client *retryablehttp.Client, maxSize int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:  client,
		maxSize: maxSize,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "HTTPFetcher.Fetch", trace.WithAttributes(
		attribute.String("url", url),
		attribute.Int64("max_size", f.maxSize),
	))
	defer span.End()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download payload")
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err = fmt.Errorf("invalid status code: %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid status code")
		return nil, err
	}

	if resp.ContentLength > f.maxSize {
		resp.Body.Close()
		err = fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, resp.ContentLength, f.maxSize)
		span.RecordError(err)
		span.SetStatus(codes.Error, "payload too large")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("content_length", resp.ContentLength))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched payload by http")
	return &limitedBody{body: resp.Body, remaining: f.maxSize}, nil
}

// Covers bodies that do not announce their length
type limitedBody struct {
	body      io.ReadCloser
	remaining int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// read one byte past the limit
		var extra [1]byte
		if n, _ := l.body.Read(extra[:]); n > 0 {
			return 0, ErrTooLarge
		}
		return 0, io.EOF
	}

	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.body.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedBody) Close() error {
	return l.body.Close()
}
