package corpus

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"devgptstats/internal/domain"
)

// NormalizeText prepares free text for display: literal escape sequences are
// decoded, accents are folded, remaining non-ASCII (emoji etc.) is dropped and
// whitespace runs collapse to one space.
func NormalizeText(s string) string {
	s = decodeEscapes(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

func decodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		if s[0] != '\\' {
			r, size := utf8.DecodeRuneInString(s)
			b.WriteRune(r)
			s = s[size:]
			continue
		}
		value, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			b.WriteByte('\\')
			s = s[1:]
			continue
		}
		b.WriteRune(value)
		s = tail
	}
	return b.String()
}

// Excerpt normalizes s and cuts it to at most maxChars characters.
func Excerpt(s string, maxChars int) string {
	s = NormalizeText(s)
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return strings.TrimSpace(s[:maxChars]) + "..."
}

// NormalizeTimestamp parses a snapshot date in whatever layout it was exported
// with. Unparseable or empty input yields the zero time.
func NormalizeTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// DateSpan returns the earliest and latest CreatedAt among records.
func DateSpan(records []domain.Record) (time.Time, time.Time) {
	var first, last time.Time
	for _, rec := range records {
		t := NormalizeTimestamp(rec.Meta().CreatedAt)
		if t.IsZero() {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	return first, last
}
