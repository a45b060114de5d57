package identifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gtcs8803/submit/internal/identifier"
)

func TestGetLanguage(t *testing.T) {
	tests := map[string]struct {
		filename string
		content  []byte
		expected identifier.Language
	}{
		"CSource": {
			filename: "echoclient.c",
			content:  []byte("int main(void) { return 0; }\n"),
			expected: identifier.LanguageC,
		},
		"CHeader": {
			filename: "shm_channel.h",
			content:  []byte("#pragma once\n"),
			expected: identifier.LanguageC,
		},
		"RPCDefinition": {
			filename: "minifyjpeg.x",
			content:  []byte("program MINIFY_PROG {} = 0x31230000;\n"),
			expected: identifier.LanguageRPC,
		},
		"Markdown": {
			filename: "readme-student.md",
			content:  []byte("# Project README\n\nNotes.\n"),
			expected: identifier.LanguageMarkdown,
		},
		"Binary": {
			filename: "blob",
			content:  []byte{0x00, 0x01, 0x02, 0x00, 0xff},
			expected: identifier.LanguageUnknown,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, identifier.GetLanguage(tt.filename, tt.content))
		})
	}
}
