package transcript

import (
	"strings"
	"unicode"
)

// Builder accumulates a spoken answer draft from streaming transcript
// segments. Interim results replace the pending segment wholesale on each
// update; finalized segments are normalized and appended to the accumulated
// text. Interim text is display-only and never reaches Text().
type Builder struct {
	segments []string
	interim  string
}

func NewBuilder() *Builder { return &Builder{} }

// Seed pre-loads previously persisted final segments, ex. when a client
// reconnects mid-question.
func (b *Builder) Seed(finals []string) {
	for _, s := range finals {
		if t := Normalize(s); t != "" {
			b.segments = append(b.segments, t)
		}
	}
}

func (b *Builder) Interim(text string) {
	b.interim = strings.TrimSpace(text)
}

// Final appends a finalized segment and clears any pending interim text.
// Returns the normalized segment as persisted ("" if the segment was empty).
func (b *Builder) Final(text string) string {
	b.interim = ""
	t := Normalize(text)
	if t == "" {
		return ""
	}
	b.segments = append(b.segments, t)
	return t
}

// Text is the persisted draft: finalized segments only.
func (b *Builder) Text() string {
	return strings.Join(b.segments, " ")
}

// Draft is the display text: finalized segments plus the pending interim.
func (b *Builder) Draft() string {
	if b.interim == "" {
		return b.Text()
	}
	if len(b.segments) == 0 {
		return b.interim
	}
	return b.Text() + " " + b.interim
}

// Normalize applies the single capitalization/punctuation pass a finalized
// segment gets: leading/trailing space trimmed, first letter upper-cased,
// and a trailing period added when the segment has no terminator.
func Normalize(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}

	runes := []rune(t)
	runes[0] = unicode.ToUpper(runes[0])

	switch runes[len(runes)-1] {
	case '.', '!', '?':
	default:
		runes = append(runes, '.')
	}
	return string(runes)
}
