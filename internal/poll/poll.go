package poll

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/submission"
)

const name = "github.com/gtcs8803/submit/internal/poll"

var (
	tracer = otel.Tracer(name)
	meter  = otel.Meter(name)
)

// Fixed wait between status checks
const Interval = 3 * time.Second

var errPending = errors.New("submission pending")

// Drives a submission handle to completion
type Poller struct {
	interval time.Duration
	attempts metric.Int64Counter
}

func New() *Poller {
	return NewWithInterval(Interval)
}

func NewWithInterval(interval time.Duration) *Poller {
	attempts, err := meter.Int64Counter(
		"submit.poll.attempts",
		metric.WithDescription("Submission status checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &Poller{interval: interval, attempts: attempts}
}

// Blocks until `handle` reports completion. Waits are fixed, unbounded and without jitter.
//
// A failed status check is returned immediately and is never retried.
func (p *Poller) Until(ctx context.Context, handle submission.Handle) error {
	ctx, span := tracer.Start(ctx, "Poller.Until")
	defer span.End()

	checks := 0
	err := retry.Do(ctx, retry.NewConstant(p.interval), func(ctx context.Context) error {
		checks++
		done, err := handle.Poll(ctx)
		if p.attempts != nil {
			p.attempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("complete", done)))
		}
		if err != nil {
			return err
		}

		logger.Logger.DebugContext(ctx, "checked submission status", "check", checks, "complete", done)
		if !done {
			return retry.RetryableError(errPending)
		}

		return nil
	})
	span.SetAttributes(attribute.Int("checks", checks))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "polling stopped")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "submission complete")
	return nil
}

// Until with a default Poller
func Until(ctx context.Context, handle submission.Handle) error {
	return New().Until(ctx, handle)
}
