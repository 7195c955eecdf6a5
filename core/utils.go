package core

import (
	"path/filepath"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ISODate returns the `YYYY-MM-DD` portion of t in UTC.
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FileExt returns the lowered extension of filename, dot included.
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(CleanString(filename)))
}
