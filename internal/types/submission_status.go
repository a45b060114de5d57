package types

import "encoding/json"

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"  // Uploaded, grading has not finished
	SubmissionStatusComplete SubmissionStatus = "complete" // Grading finished; result and/or error report may be set
)

type (
	CreateSubmissionResponse struct {
		SubmissionID string           `json:"submission_id" validate:"required"`
		Status       SubmissionStatus `json:"status"        validate:"required"`
	}

	SubmissionStatusResponse struct {
		SubmissionID string           `json:"submission_id" validate:"required"`
		Status       SubmissionStatus `json:"status"        validate:"required,oneof=pending complete"`
		// Kept as received so the persisted artifact matches the service payload
		Result      json.RawMessage `json:"result,omitempty"`
		ErrorReport json.RawMessage `json:"error_report,omitempty"`
		// Presigned location of the result when it is too large to inline
		ResultURL *string `json:"result_url,omitempty"`
	}

	ManifestFile struct {
		Name     string `json:"name"     validate:"required"`
		Size     int64  `json:"size"`
		SHA256   string `json:"sha256"   validate:"required,len=64"`
		Language string `json:"language"`
	}

	Manifest struct {
		CourseID    string         `json:"course_id"    validate:"required"`
		QuizID      string         `json:"quiz_id"      validate:"required"`
		Environment Environment    `json:"environment"  validate:"required"`
		Provider    Provider       `json:"provider"     validate:"required"`
		Files       []ManifestFile `json:"files"        validate:"required,min=1,dive"`
		Commit      *string        `json:"commit,omitempty"`
		Dirty       *bool          `json:"dirty,omitempty"`
	}
)
