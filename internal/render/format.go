package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

const (
	descriptionWidth = 70
	markerWidth      = 9
)

// `description[:69] + ":"` left-justified to 70 columns, a space, then the marker right-justified
// to 9 columns. The cut is on runes; the marker is never truncated.
func FormatTestLine(description, passfail string) string {
	runes := []rune(description)
	if len(runes) > descriptionWidth-1 {
		runes = runes[:descriptionWidth-1]
	}

	return fmt.Sprintf("%-*s %*s", descriptionWidth, string(runes)+":", markerWidth, passfail)
}

type heading struct {
	key   string
	label string
	// value printed on the line after the label
	block bool
}

var reportHeadings = []heading{
	{key: "description", label: "Description"},
	{key: "traceback", label: "Traceback", block: true},
}

var outputHeadings = []heading{
	{key: "client_returncode", label: "Client Returncode"},
	{key: "server_returncode", label: "Server Returncode"},
	{key: "server_console", label: "Server Console", block: true},
	{key: "client_console", label: "Client Console", block: true},
}

// Prints the known fields of an error report, or of each report in an array, under headings.
// Absent fields are skipped.
func PrintErrorReport(w io.Writer, payload json.RawMessage) error {
	var reports []map[string]json.RawMessage

	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("[")) {
		if err := json.Unmarshal(payload, &reports); err != nil {
			return fmt.Errorf("failed to decode error reports: %w", err)
		}
	} else {
		report := map[string]json.RawMessage{}
		if err := json.Unmarshal(payload, &report); err != nil {
			return fmt.Errorf("failed to decode error report: %w", err)
		}
		reports = append(reports, report)
	}

	for _, report := range reports {
		printHeadings(w, report, reportHeadings)

		rawOutput, ok := report["output"]
		if !ok {
			continue
		}

		output := map[string]json.RawMessage{}
		if err := json.Unmarshal(rawOutput, &output); err != nil {
			return fmt.Errorf("failed to decode error report output: %w", err)
		}
		printHeadings(w, output, outputHeadings)
	}

	return nil
}

func printHeadings(w io.Writer, fields map[string]json.RawMessage, headings []heading) {
	for _, h := range headings {
		raw, ok := fields[h.key]
		if !ok {
			continue
		}

		if h.block {
			fmt.Fprintf(w, "%s:\n%s\n", h.label, display(raw))
		} else {
			fmt.Fprintf(w, "%s: %s\n", h.label, display(raw))
		}
	}
}

// Strings print unquoted, anything else as compact JSON
func display(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}

	return buf.String()
}
