package outcome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/submission"
	"github.com/gtcs8803/submit/internal/types"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/internal/outcome")

// Terminal state of a graded submission. Implemented only by Result, ErrorReport and Unknown.
type Outcome interface {
	Kind() types.OutcomeKind
	sealed()
}

// Service produced a result payload
type Result struct {
	Payload json.RawMessage
}

// Grading could not complete; the service produced an error report
type ErrorReport struct {
	Payload json.RawMessage
}

// Neither a result nor an error report was available
type Unknown struct{}

func (Result) Kind() types.OutcomeKind      { return types.OutcomeResult }
func (ErrorReport) Kind() types.OutcomeKind { return types.OutcomeErrorReport }
func (Unknown) Kind() types.OutcomeKind     { return types.OutcomeUnknown }

func (Result) sealed()      {}
func (ErrorReport) sealed() {}
func (Unknown) sealed()     {}

// Routes a completed submission to exactly one outcome.
//
// The result is checked first so a submission carrying both payloads is a Result.
// Presence decides, not content: `{"tests": []}` is still a Result.
func Classify(ctx context.Context, handle submission.Handle) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Classify")
	defer span.End()

	result, err := handle.Result(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get result")
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if !IsEmpty(result) {
		return done(span, Result{Payload: result}), nil
	}

	report, err := handle.ErrorReport(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get error report")
		return nil, fmt.Errorf("failed to get error report: %w", err)
	}
	if !IsEmpty(report) {
		return done(span, ErrorReport{Payload: report}), nil
	}

	return done(span, Unknown{}), nil
}

func done(span trace.Span, o Outcome) Outcome {
	span.SetAttributes(attribute.String("outcome", string(o.Kind())))
	span.SetStatus(codes.Ok, "classified submission")
	return o
}

// Reports whether a payload counts as absent: missing, or a JSON null, false, zero, empty string,
// empty object or empty array.
func IsEmpty(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return true
	}

	switch trimmed[0] {
	case '{':
		var object map[string]json.RawMessage
		return json.Unmarshal(trimmed, &object) == nil && len(object) == 0
	case '[':
		var array []json.RawMessage
		return json.Unmarshal(trimmed, &array) == nil && len(array) == 0
	case '"':
		var str string
		return json.Unmarshal(trimmed, &str) == nil && str == ""
	case 'n', 'f':
		return bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false"))
	case 't':
		return false
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return false
		}
		f, err := n.Float64()
		return err == nil && f == 0
	}
}
