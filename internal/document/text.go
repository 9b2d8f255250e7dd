package document

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/procforge/internal/models"
)

// Truncate shortens s to max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return strings.Repeat(".", max)
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

// LastModifier returns the author of the newest history entry, falling back
// to author and then to the undefined placeholder.
func LastModifier(history []models.Entry, author string) string {
	if n := len(history); n > 0 && history[n-1].Author != "" {
		return history[n-1].Author
	}
	return or(author, Undefined)
}

// Filename builds the export file name:
// procedure_{title}_v{version}_{YYYY-MM-DD}.json. Every character of the
// title outside [A-Za-z0-9] becomes an underscore and the result is
// lowercased.
func Filename(title, version string, date time.Time) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	clean := strings.ToLower(b.String())
	if clean == "" {
		clean = "procedure"
	}
	return "procedure_" + clean + "_v" + version + "_" + date.UTC().Format("2006-01-02") + ".json"
}
