package utils

import (
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingJunk = regexp.MustCompile(`[.\s]+$`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Sanitize maps arbitrary title text to a filesystem-safe name. It is pure
// and idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
//
// Transformations:
//   - invalid path characters (<>:"/\|?* and control chars) become underscore
//   - runs of whitespace collapse to a single space
//   - leading whitespace is removed
//   - the trailing run of dots and whitespace is removed (Windows rejects
//     names ending in either)
func Sanitize(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = trailingJunk.ReplaceAllString(name, "")
	if name == "" {
		return "untitled"
	}
	return name
}
