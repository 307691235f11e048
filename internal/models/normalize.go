package models

import (
	"strings"
	"unicode"
)

// NormalizeID приводит трек/клиент ID к каноническому виду:
// верхний регистр, без пробельных символов ("  yaq 882190 " -> "YAQ882190").
func NormalizeID(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
