package types

// Which terminal branch a completed submission took
type OutcomeKind string

const (
	OutcomeResult      OutcomeKind = "result"
	OutcomeErrorReport OutcomeKind = "error_report"
	OutcomeUnknown     OutcomeKind = "unknown"
)

// Persisted artifact flavour; also the middle segment of the artifact filename
type ArtifactKind string

const (
	ArtifactResult      ArtifactKind = "result"
	ArtifactErrorReport ArtifactKind = "error-report"
)
