package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/archive"
	"github.com/gtcs8803/submit/internal/audit"
	exiterrors "github.com/gtcs8803/submit/internal/exit_errors"
	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/outcome"
	"github.com/gtcs8803/submit/internal/poll"
	"github.com/gtcs8803/submit/internal/quiz"
	"github.com/gtcs8803/submit/internal/render"
	"github.com/gtcs8803/submit/internal/submission"
	"github.com/gtcs8803/submit/internal/types"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/internal/lifecycle")

// Starts submissions on the grading service
type Submitter interface {
	Submit(ctx context.Context, opts submission.Options) (submission.Handle, error)
}

type SubmitterFunc func(ctx context.Context, opts submission.Options) (submission.Handle, error)

func (f SubmitterFunc) Submit(ctx context.Context, opts submission.Options) (submission.Handle, error) {
	return f(ctx, opts)
}

// Submitter backed by the HTTP API
func HTTPSubmitter(svc submission.Service) Submitter {
	return SubmitterFunc(func(ctx context.Context, opts submission.Options) (submission.Handle, error) {
		return submission.New(ctx, opts, svc)
	})
}

// Blocks until a submission finishes grading
type Waiter interface {
	Until(ctx context.Context, handle submission.Handle) error
}

// One submission of one quiz
type Request struct {
	Quiz        quiz.Quiz
	CourseID    string
	Environment types.Environment
	Provider    types.Provider
	// Directory Quiz.Dir is relative to. Empty means the current directory.
	Root string
}

// Submits, waits for grading and renders the outcome. Shared by every tool.
type Client struct {
	submitter Submitter
	waiter    Waiter
	out       io.Writer
	archiver  *archive.Archiver
	trail     *audit.Trail
	now       func() time.Time
}

type Option func(*Client)

func WithWaiter(w Waiter) Option {
	return func(c *Client) { c.waiter = w }
}

// Console the outcome is rendered to. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Client) { c.out = w }
}

// Copy written artifacts to object storage
func WithArchiver(a *archive.Archiver) Option {
	return func(c *Client) { c.archiver = a }
}

func WithAuditTrail(t *audit.Trail) Option {
	return func(c *Client) { c.trail = t }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(submitter Submitter, opts ...Option) *Client {
	c := &Client{
		submitter: submitter,
		waiter:    poll.New(),
		out:       os.Stdout,
		trail:     audit.Discard,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	return c
}

func (c *Client) Run(ctx context.Context, req Request) (render.Report, error) {
	ctx, span := tracer.Start(ctx, "Client.Run", trace.WithAttributes(
		attribute.String("quiz", req.Quiz.Key),
		attribute.String("environment", req.Environment.String()),
		attribute.String("provider", req.Provider.String()),
	))
	defer span.End()

	l := logger.Logger.With("quiz", req.Quiz.Key)

	dir := filepath.Join(req.Root, req.Quiz.Dir)

	handle, err := c.submitter.Submit(ctx, submission.Options{
		CourseID:    req.CourseID,
		QuizID:      req.Quiz.Key,
		Filenames:   req.Quiz.Filenames,
		Dir:         dir,
		Environment: req.Environment,
		Provider:    req.Provider,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit")
		return render.Report{}, fmt.Errorf("failed to submit %s: %w", req.Quiz.Key, err)
	}
	timestamp := c.now()

	auditContext := audit.Context{
		CourseID:    req.CourseID,
		QuizID:      req.Quiz.Key,
		Environment: req.Environment,
		Provider:    req.Provider,
	}
	var manifest *types.Manifest
	if identified, ok := handle.(submission.Identified); ok {
		id := identified.ID()
		auditContext.SubmissionID = &id
		manifest = identified.Manifest()
		l = l.With("submission_id", id)
		span.SetAttributes(attribute.String("submission_id", id))
	}
	c.trail.LogSubmissionCreated(auditContext, manifest)

	l.DebugContext(ctx, "waiting for grading")
	if err := c.waiter.Until(ctx, handle); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed while polling")
		return render.Report{}, fmt.Errorf("failed while waiting for grading: %w", err)
	}

	o, err := outcome.Classify(ctx, handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to classify")
		return render.Report{}, err
	}
	l.InfoContext(ctx, "submission graded", "outcome", o.Kind())

	report, err := render.New(c.out, req.Quiz.Variant).Render(ctx, o, render.Target{
		Dir:        dir,
		DisplayDir: req.Quiz.Dir,
		Prefix:     req.Quiz.Prefix,
		Timestamp:  timestamp,
	})
	c.trail.LogSubmissionOutcome(auditContext, o.Kind(), report.Result)

	if report.Artifact != "" {
		c.trail.LogArtifactWritten(ctx, auditContext, report.ArtifactKind, report.Artifact)
		c.archive(ctx, l, auditContext, report.Artifact)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render")
		return report, fmt.Errorf("failed to render %s: %w", o.Kind(), err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "submission complete")
	return report, nil
}

// Archive failures never change the outcome
func (c *Client) archive(ctx context.Context, l *slog.Logger, auditContext audit.Context, path string) {
	if c.archiver == nil {
		return
	}

	objectName, err := c.archiver.Archive(ctx, auditContext, path)
	if err != nil {
		l.WarnContext(ctx, "failed to archive artifact", "artifact", path, "error", err)
		return
	}

	l.InfoContext(ctx, "archived artifact", "artifact", path, "object", objectName)
}

// Process exit code for a finished run. Always ExitNormal unless distinct codes are enabled.
func ExitCode(report render.Report, distinct bool) int {
	if !distinct {
		return exiterrors.ExitNormal
	}

	switch report.Kind {
	case types.OutcomeResult:
		if report.Result != nil && report.Result.AllPassed() {
			return exiterrors.ExitNormal
		}
		return exiterrors.ExitFailedTests
	case types.OutcomeErrorReport:
		return exiterrors.ExitErrorReport
	case types.OutcomeUnknown:
		return exiterrors.ExitUnknown
	default:
		return exiterrors.ExitErrored
	}
}
