package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/artifact"
	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/outcome"
	"github.com/gtcs8803/submit/internal/schema"
	"github.com/gtcs8803/submit/internal/types"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/internal/render")

type Variant string

const (
	// Per-test lines and a pointer to the persisted artifact
	VariantMinimal Variant = "minimal"
	// Minimal plus the error report fields printed under headings
	VariantExtended Variant = "extended"
	// Payload printed as JSON, nothing persisted
	VariantRaw Variant = "raw"
)

const UnknownMessage = "Unknown error."

// Where and under which name artifacts are persisted
type Target struct {
	// Directory artifacts are written to
	Dir string
	// Dir as shown to the user in pointer lines
	DisplayDir string
	Prefix     string
	Timestamp  time.Time
}

// What was rendered
type Report struct {
	Kind types.OutcomeKind
	// Written artifact, empty when nothing was persisted
	Artifact     string
	ArtifactKind types.ArtifactKind
	// Only meaningful for results
	Result *types.ResultPayload
}

// Renders outcomes to the console and persists artifacts
type Renderer struct {
	out     io.Writer
	variant Variant
}

func New(out io.Writer, variant Variant) *Renderer {
	return &Renderer{out: out, variant: variant}
}

func (r *Renderer) Render(ctx context.Context, o outcome.Outcome, target Target) (Report, error) {
	ctx, span := tracer.Start(ctx, "Renderer.Render", trace.WithAttributes(
		attribute.String("variant", string(r.variant)),
		attribute.String("outcome", string(o.Kind())),
	))
	defer span.End()

	var report Report
	var err error

	switch o := o.(type) {
	case outcome.Result:
		report, err = r.result(ctx, o.Payload, target)
	case outcome.ErrorReport:
		report, err = r.errorReport(ctx, o.Payload, target)
	case outcome.Unknown:
		fmt.Fprintln(r.out, UnknownMessage)
		report = Report{Kind: types.OutcomeUnknown}
	default:
		err = fmt.Errorf("unhandled outcome %T", o)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render outcome")
		return report, err
	}

	span.SetAttributes(attribute.String("artifact", report.Artifact))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "rendered outcome")
	return report, nil
}

func (r *Renderer) result(ctx context.Context, payload json.RawMessage, target Target) (Report, error) {
	report := Report{Kind: types.OutcomeResult}

	if r.variant == VariantRaw {
		return report, r.raw(payload)
	}

	// persisted before validating so nothing received is lost
	path, displayPath, err := persist(ctx, payload, types.ArtifactResult, target)
	if err != nil {
		return report, err
	}
	report.Artifact = path
	report.ArtifactKind = types.ArtifactResult

	if err := schema.ValidateResult(payload); err != nil {
		logger.Logger.ErrorContext(ctx, "result payload cannot be rendered",
			"artifact", path,
			"fields", schema.Fields(err),
		)
		return report, err
	}

	result := types.ResultPayload{}
	if err := json.Unmarshal(payload, &result); err != nil {
		return report, fmt.Errorf("failed to decode result: %w", err)
	}
	report.Result = &result

	for _, t := range result.Tests {
		fmt.Fprintln(r.out, FormatTestLine(t.Description, t.Output.PassFail))
	}

	fmt.Fprintf(r.out, "(Details available in %s.)\n", displayPath)
	return report, nil
}

func (r *Renderer) errorReport(ctx context.Context, payload json.RawMessage, target Target) (Report, error) {
	report := Report{Kind: types.OutcomeErrorReport}

	if r.variant == VariantRaw {
		return report, r.raw(payload)
	}

	path, displayPath, err := persist(ctx, payload, types.ArtifactErrorReport, target)
	if err != nil {
		return report, err
	}
	report.Artifact = path
	report.ArtifactKind = types.ArtifactErrorReport

	if r.variant == VariantExtended {
		if err := schema.ValidateErrorReport(payload); err != nil {
			// the artifact already holds everything; headings are a convenience
			logger.Logger.WarnContext(ctx, "error report does not match schema",
				"artifact", path,
				"fields", schema.Fields(err),
			)
		} else if err := PrintErrorReport(r.out, payload); err != nil {
			logger.Logger.WarnContext(ctx, "could not print error report fields", "error", err)
		}
	}

	fmt.Fprintf(r.out, "Something went wrong.  Please see the error report in %s.\n", displayPath)
	return report, nil
}

func (r *Renderer) raw(payload json.RawMessage) error {
	formatted, err := artifact.Format(payload)
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out, string(formatted))
	return nil
}

// Writes the artifact and returns its path along with the path to show the user
func persist(
	ctx context.Context,
	payload json.RawMessage,
	kind types.ArtifactKind,
	target Target,
) (string, string, error) {
	name := artifact.Filename(target.Prefix, kind, target.Timestamp)

	path, err := artifact.Write(ctx, target.Dir, name, payload)
	if err != nil {
		return "", "", err
	}

	return path, filepath.Join(target.DisplayDir, name), nil
}
