package utils

import (
	"strings"
	"unicode"
)

// NormalizeHeader strips a stray byte order mark and compares header names case-insensitively.
func NormalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeEmail is the identity used for deduplication and history lookups.
func NormalizeEmail(value string) string {
	return NormalizeKey(value)
}

// NormalizeLabel folds spelling drift in department and choice names:
// en dashes become hyphens and whitespace runs collapse to one space.
func NormalizeLabel(value string) string {
	value = strings.ReplaceAll(value, "\u2013", "-")
	return strings.Join(strings.FieldsFunc(value, unicode.IsSpace), " ")
}

// FileName turns a choice label into a portable file name.
func FileName(label string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(label) {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	name := strings.Trim(b.String(), ". ")
	if name == "" {
		return "_"
	}
	return name
}
