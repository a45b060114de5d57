package audit

import (
	"github.com/gtcs8803/submit/internal/types"
)

var schemaVersion = "0.1.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type EventType string

const (
	EvtSubmissionCreated EventType = "submission_created"
	EvtSubmissionOutcome EventType = "submission_outcome"
	EvtArtifactWritten   EventType = "artifact_written"
	EvtArtifactArchived  EventType = "artifact_archived"
)

type Message struct {
	SubmissionID  *string           `json:"submission_id"`
	CourseID      string            `json:"course_id"   validate:"required"`
	QuizID        string            `json:"quiz_id"     validate:"required"`
	Environment   types.Environment `json:"environment" validate:"required"`
	Provider      types.Provider    `json:"provider"    validate:"required"`
	LogContext    string            `json:"log_context" validate:"required"`
	SchemaVersion string            `json:"version"     validate:"required"`
	Disposition   Disposition       `json:"disposition" validate:"required"`
	Type          EventType         `json:"event_type"  validate:"required"`

	// Unix milliseconds
	Timestamp int64 `json:"timestamp" validate:"required"`
}

type SubmissionCreatedEvent struct {
	Files  []types.ManifestFile `json:"files"  validate:"required,dive"`
	Commit *string              `json:"commit"`
}

type SubmissionCreated struct {
	Event SubmissionCreatedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionOutcomeEvent struct {
	Outcome types.OutcomeKind `json:"outcome" validate:"required"`
	// Only set for results
	Tests     *int  `json:"tests,omitempty"`
	AllPassed *bool `json:"all_passed,omitempty"`
}

type SubmissionOutcome struct {
	Event SubmissionOutcomeEvent `json:"event" validate:"required"`
	Message
}

type ArtifactWrittenEvent struct {
	Kind types.ArtifactKind `json:"kind" validate:"required"`
	Path string             `json:"path" validate:"required"`
	// Unset when the artifact could not be read back
	SHA256 string `json:"sha256,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

type ArtifactWritten struct {
	Event ArtifactWrittenEvent `json:"event" validate:"required"`
	Message
}

type ArtifactArchivedEvent struct {
	Location   string `json:"location"    validate:"required"`
	ObjectName string `json:"object_name" validate:"required"`
	Path       string `json:"path"        validate:"required"`
}

type ArtifactArchived struct {
	Event ArtifactArchivedEvent `json:"event" validate:"required"`
	Message
}
