package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtcs8803/submit/internal/render"
)

func TestFormatTestLine(t *testing.T) {
	t.Run("Padding", func(t *testing.T) {
		actual := render.FormatTestLine("Client connects", "PASS")

		expected := "Client connects:" + strings.Repeat(" ", 70-len("Client connects:")) + " " + "     PASS"
		assert.Equal(t, expected, actual)
		assert.Len(t, actual, 80)
	})

	t.Run("Exactly69NotTruncated", func(t *testing.T) {
		description := strings.Repeat("a", 69)
		actual := render.FormatTestLine(description, "FAIL")

		assert.Equal(t, description+":"+" "+"     FAIL", actual)
		assert.Len(t, actual, 80)
	})

	t.Run("70Truncated", func(t *testing.T) {
		actual := render.FormatTestLine(strings.Repeat("a", 69)+"b", "passed")

		assert.Equal(t, strings.Repeat("a", 69)+":"+"    passed", actual)
		assert.Len(t, actual, 80)
	})

	t.Run("LongTruncatedWithoutWordBoundary", func(t *testing.T) {
		description := "The client should send the whole file to the server and the server should write it to disk"
		actual := render.FormatTestLine(description, "PASS")

		assert.True(t, strings.HasPrefix(actual, description[:69]+":"))
		assert.Len(t, actual, 80)
	})

	t.Run("RuneCut", func(t *testing.T) {
		description := strings.Repeat("é", 75)
		actual := render.FormatTestLine(description, "PASS")

		assert.Equal(t, 80, utf8.RuneCountInString(actual))
		assert.True(t, strings.HasPrefix(actual, strings.Repeat("é", 69)+":"))
	})

	t.Run("LongMarkerNotTruncated", func(t *testing.T) {
		actual := render.FormatTestLine("Client connects", "NOT RUN YET")

		assert.True(t, strings.HasSuffix(actual, " NOT RUN YET"))
		assert.Len(t, actual, 82)
	})
}

func TestPrintErrorReport(t *testing.T) {
	t.Run("AllFieldsInOrder", func(t *testing.T) {
		payload := json.RawMessage(`{
			"output": {
				"client_console": "connecting\nconnected",
				"server_console": "listening",
				"server_returncode": 0,
				"client_returncode": -11
			},
			"traceback": "Traceback (most recent call last):\n  boom",
			"description": "boom"
		}`)

		var buf bytes.Buffer
		require.NoError(t, render.PrintErrorReport(&buf, payload))

		expected := `Description: boom
Traceback:
Traceback (most recent call last):
  boom
Client Returncode: -11
Server Returncode: 0
Server Console:
listening
Client Console:
connecting
connected
`
		assert.Equal(t, expected, buf.String())
	})

	t.Run("AbsentFieldsSkipped", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.PrintErrorReport(&buf, json.RawMessage(`{"description": "boom", "traceback": "...stack..."}`)))

		assert.Equal(t, "Description: boom\nTraceback:\n...stack...\n", buf.String())
	})

	t.Run("Array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.PrintErrorReport(&buf, json.RawMessage(`[{"description": "first"}, {"description": {"code": 2}}]`)))

		assert.Equal(t, "Description: first\nDescription: {\"code\":2}\n", buf.String())
	})

	t.Run("Invalid", func(t *testing.T) {
		var buf bytes.Buffer
		require.Error(t, render.PrintErrorReport(&buf, json.RawMessage(`"boom"`)))
	})
}
