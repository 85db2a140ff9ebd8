package embedder

import "unicode/utf8"

// Span locates a token or a chunk inside the text it was produced from.
// Start and End are byte offsets into the UTF-8 text, End is exclusive,
// so text[Start:End] is the exact source slice.
// The zero Span marks a synthetic token that has no source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsZero reports whether the span is the (0,0) marker span
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Empty reports whether the span covers no text
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

// Shift moves a non-empty span by n bytes. Empty spans carry no position
// and are returned unchanged.
func (s Span) Shift(n int) Span {
	if s.Empty() {
		return s
	}
	return Span{Start: s.Start + n, End: s.End + n}
}

// Within reports whether the span lies inside a text of the given length
func (s Span) Within(length int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= length
}

// Text returns the slice of src covered by the span, or "" when the span
// does not fit inside src.
func (s Span) Text(src string) string {
	if s.Empty() || !s.Within(len(src)) {
		return ""
	}
	return src[s.Start:s.End]
}

// Runes converts byte offsets into Unicode code point offsets of src.
func (s Span) Runes(src string) Span {
	if !s.Within(len(src)) {
		return s
	}
	start := utf8.RuneCountInString(src[:s.Start])
	return Span{
		Start: start,
		End:   start + utf8.RuneCountInString(src[s.Start:s.End]),
	}
}

// Mode selects the tokenizer template and model prompt used for a text.
type Mode int

const (
	// ModeDocument embeds passages that will be searched
	ModeDocument Mode = iota
	// ModeQuery embeds search queries
	ModeQuery
)

func (m Mode) String() string {
	switch m {
	case ModeQuery:
		return "query"
	default:
		return "document"
	}
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "query":
		*m = ModeQuery
	case "document", "":
		*m = ModeDocument
	default:
		return &ValidationError{Field: "mode", Reason: "unknown mode " + string(text)}
	}
	return nil
}

// Record pairs one token-level embedding with the span of the token it was
// computed for. Marker tokens inserted by the model carry the zero span.
type Record struct {
	Embedding []float64 `json:"embedding"`
	Span
}
