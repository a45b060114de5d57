package types

import (
	"encoding/json"
	"strings"
)

type (
	// Console and return code fields shared by test output and error reports.
	//
	// Fields are left raw since the service does not guarantee their types; a nil value means the key was absent.
	ConsoleOutput struct {
		ClientReturnCode json.RawMessage `json:"client_returncode,omitempty"`
		ServerReturnCode json.RawMessage `json:"server_returncode,omitempty"`
		ClientConsole    json.RawMessage `json:"client_console,omitempty"`
		ServerConsole    json.RawMessage `json:"server_console,omitempty"`
	}

	TestOutput struct {
		PassFail string `json:"passfail"`
		ConsoleOutput
	}

	TestRecord struct {
		Description string     `json:"description"`
		Output      TestOutput `json:"output"`
	}

	ResultPayload struct {
		Tests []TestRecord `json:"tests"`
	}

	ErrorReportPayload struct {
		Description json.RawMessage `json:"description,omitempty"`
		Traceback   json.RawMessage `json:"traceback,omitempty"`
		Output      *ConsoleOutput  `json:"output,omitempty"`
	}
)

// True when every test record is marked as passed
func (r ResultPayload) AllPassed() bool {
	for _, t := range r.Tests {
		marker := strings.TrimSpace(t.Output.PassFail)
		if !strings.EqualFold(marker, "passed") && !strings.EqualFold(marker, "pass") {
			return false
		}
	}

	return true
}
