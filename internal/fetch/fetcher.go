package fetch

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer(
	"github.com/gtcs8803/submit/internal/fetch",
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Fetcher

// Retrieves payloads the grading service hands out by URL instead of inline
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}
