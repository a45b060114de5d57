package identifier

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

type Language string

const (
	LanguageC        Language = "C"
	LanguageRPC      Language = "RPC"
	LanguageMarkdown Language = "Markdown"
	LanguageText     Language = "Text"
	// Returned when nothing can be determined, e.g. binary content
	LanguageUnknown Language = ""
)

func (l Language) String() string {
	return string(l)
}

// Heuristically determine the language of a file given its name and content
func GetLanguage(filename string, content []byte) Language {
	base := filepath.Base(filename)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".c", ".h":
		return LanguageC
	case ".x":
		// rpcgen interface definitions; enry has no entry for them
		return LanguageRPC
	}

	if enry.IsBinary(content) {
		return LanguageUnknown
	}

	if lang := enry.GetLanguage(base, content); lang != "" {
		return Language(lang)
	}

	if strings.EqualFold(base, "README") {
		return LanguageText
	}

	return LanguageUnknown
}
