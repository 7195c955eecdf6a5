package evaluation

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SplitLine splits one line of delimited text into fields, honoring double-quoted fields.
// Inside quotes the delimiter is literal and `""` is an escaped quote.
// Every field is trimmed; an unterminated quote runs to the end of the line.
// The line is scanned byte by byte, so bytes that are not valid UTF-8 are kept as they are.
func SplitLine(line string, delim byte) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

// ParseOptionalInt parses a base-10 integer, returning def when text is blank.
func ParseOptionalInt(text string, def int) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return def, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidNumber, "parsing %q", text)
	}
	return n, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// quoteField wraps value in double quotes, doubling inner quotes, when it contains a comma or a quote.
func quoteField(value string) string {
	if !strings.ContainsAny(value, `,"`) {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
