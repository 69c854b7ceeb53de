package utils

import (
	"strings"
	"unicode"
)

// SecureFilename reduces a client supplied name to a safe storage name.
// Path separators and whitespace become underscores, anything outside
// [A-Za-z0-9_.-] is dropped, and leading dots or underscores are trimmed.
func SecureFilename(name string) string {
	clean := strings.TrimSpace(name)
	clean = strings.ReplaceAll(clean, "/", " ")
	clean = strings.ReplaceAll(clean, "\\", " ")
	clean = strings.Join(strings.Fields(clean), "_")
	var b strings.Builder
	for _, r := range clean {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-') {
			b.WriteRune(r)
		}
	}
	clean = strings.Trim(b.String(), "._")
	if clean == "" {
		return "file"
	}
	return clean
}
