package agents

import (
	"strings"
	"time"
)

// longTimestamp is the human-readable stamp used in report footers.
func longTimestamp(t time.Time) string {
	return t.Format("January 02, 2006 at 3:04 PM")
}

// longDate is the date-only variant used by digest reports.
func longDate(t time.Time) string {
	return t.Format("January 02, 2006")
}

// bulletLines renders up to max items as "• item" lines.
func bulletLines(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}

// titleWord capitalizes a single word like "intermediate".
func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// truncateRunes bounds s to n characters, not bytes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
