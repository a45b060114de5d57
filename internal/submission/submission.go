package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/gtcs8803/submit/internal/types"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/internal/submission")

//go:generate mockgen -destination ./mock/mock.go -package mock . Handle

// One in-flight submission on the grading service
type Handle interface {
	// Reports whether grading has finished. Non-blocking and safe to call repeatedly.
	Poll(ctx context.Context) (bool, error)
	// Result payload exactly as received; nil or a JSON falsy value when there is none
	Result(ctx context.Context) (json.RawMessage, error)
	// Error report payload exactly as received; nil or a JSON falsy value when there is none
	ErrorReport(ctx context.Context) (json.RawMessage, error)
}

// Implemented by handles that know their service-side identity
type Identified interface {
	ID() string
	Manifest() *types.Manifest
}

// What gets submitted. Filenames are relative to Dir and uploaded in order.
type Options struct {
	CourseID    string            `json:"course_id"   validate:"required"`
	QuizID      string            `json:"quiz_id"     validate:"required"`
	Filenames   []string          `json:"filenames"   validate:"required,min=1,dive,required"`
	Dir         string            `json:"dir"`
	Environment types.Environment `json:"environment" validate:"required"`
	Provider    types.Provider    `json:"provider"    validate:"required"`
}

var (
	ErrNotComplete = errors.New("submission has not finished grading")
	ErrMissingFile = errors.New("required file is missing")
)

// Non-2xx response from the grading service
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grading service: HTTP %d: %s", e.StatusCode, e.Message)
}
