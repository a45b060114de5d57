package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed result.schema.json
	resultSchema string
	//go:embed error_report.schema.json
	errorReportSchema string

	Result      = jsonschema.MustCompileString("result.schema.json", resultSchema)
	ErrorReport = jsonschema.MustCompileString("error_report.schema.json", errorReportSchema)
)

// Checks a result payload has a renderable `tests` array
func ValidateResult(payload json.RawMessage) error {
	return validate(Result, "result", payload)
}

// Checks an error report is an object, or an array of objects, with an object `output`
func ValidateErrorReport(payload json.RawMessage) error {
	return validate(ErrorReport, "error report", payload)
}

func validate(s *jsonschema.Schema, what string, payload json.RawMessage) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", what, err)
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s does not match schema: %w", what, err)
	}

	return nil
}

// Failing keyword locations mapped to their messages, nil for non schema errors
func Fields(err error) map[string]string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil
	}

	errs := validationErr.BasicOutput().Errors
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		if e.Error == "" {
			continue
		}
		fields[e.InstanceLocation] = e.Error
	}

	return fields
}
