package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gtcs8803/submit/internal/hash"
	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/types"
)

// Identifies the submission every audit line belongs to
type Context struct {
	SubmissionID *string
	CourseID     string
	QuizID       string
	Environment  types.Environment
	Provider     types.Provider
}

// Appends audit events as JSON lines
type Trail struct {
	mu sync.Mutex
	w  io.Writer
}

// Trail that drops every event
var Discard = New(io.Discard)

func New(w io.Writer) *Trail {
	return &Trail{w: w}
}

// Opens `path` for appending, creating it if needed. The caller closes the returned file.
func Open(path string) (*Trail, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit trail: %w", err)
	}

	return New(f), f, nil
}

func (c Context) message(evt EventType, disp Disposition) Message {
	return Message{
		SubmissionID:  c.SubmissionID,
		CourseID:      c.CourseID,
		QuizID:        c.QuizID,
		Environment:   c.Environment,
		Provider:      c.Provider,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		Disposition:   disp,
		Type:          evt,
		Timestamp:     time.Now().UTC().UnixMilli(),
	}
}

func (t *Trail) emit(evt EventType, v any) {
	line, err := json.Marshal(v)
	if err != nil {
		logger.Logger.Error("could not serialize audit event", "event_type", evt, "error", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.w.Write(append(line, '\n')); err != nil {
		logger.Logger.Error("could not write audit event", "event_type", evt, "error", err)
	}
}

func (t *Trail) LogSubmissionCreated(c Context, manifest *types.Manifest) {
	event := SubmissionCreated{Message: c.message(EvtSubmissionCreated, DispositionNeutral)}
	if manifest != nil {
		event.Event.Files = manifest.Files
		event.Event.Commit = manifest.Commit
	}

	t.emit(EvtSubmissionCreated, event)
}

// `result` is only consulted for the result branch and may be nil otherwise
func (t *Trail) LogSubmissionOutcome(c Context, kind types.OutcomeKind, result *types.ResultPayload) {
	disp := DispositionNeutral
	event := SubmissionOutcome{}
	event.Event.Outcome = kind

	switch kind {
	case types.OutcomeResult:
		if result != nil {
			tests := len(result.Tests)
			passed := result.AllPassed()
			event.Event.Tests = &tests
			event.Event.AllPassed = &passed

			disp = DispositionBad
			if passed {
				disp = DispositionGood
			}
		}
	case types.OutcomeErrorReport:
		disp = DispositionBad
	case types.OutcomeUnknown:
		disp = DispositionNeutral
	}

	event.Message = c.message(EvtSubmissionOutcome, disp)
	t.emit(EvtSubmissionOutcome, event)
}

func (t *Trail) LogArtifactWritten(ctx context.Context, c Context, kind types.ArtifactKind, path string) {
	event := ArtifactWritten{Message: c.message(EvtArtifactWritten, DispositionNeutral)}
	event.Event.Kind = kind
	event.Event.Path = path

	sum, size, err := hash.File(ctx, path)
	if err != nil {
		logger.Logger.WarnContext(ctx, "could not digest artifact", "artifact", path, "error", err)
	} else {
		event.Event.SHA256 = sum
		event.Event.Size = size
	}

	t.emit(EvtArtifactWritten, event)
}

func (t *Trail) LogArtifactArchived(c Context, location, objectName, path string) {
	event := ArtifactArchived{Message: c.message(EvtArtifactArchived, DispositionNeutral)}
	event.Event.Location = location
	event.Event.ObjectName = objectName
	event.Event.Path = path

	t.emit(EvtArtifactArchived, event)
}
