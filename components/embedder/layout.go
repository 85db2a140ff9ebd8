package embedder

import "fmt"

// Layout describes where a model injects synthetic marker tokens that the
// tokenizer does not report. Markers are insertion points into the offset
// list, applied in order, each index referring to the list as it stands
// after the previous insertions.
type Layout struct {
	Name    string
	Markers []int
}

var (
	// ColBERTLayout is the late-interaction layout that places a [D] or [Q]
	// marker right after the leading [CLS] token.
	ColBERTLayout = Layout{Name: "colbert", Markers: []int{1}}
	// NoMarkerLayout is used for models whose output matches the tokenizer one to one
	NoMarkerLayout = Layout{Name: "none"}
)

// LayoutByName returns a builtin layout
func LayoutByName(name string) (Layout, error) {
	switch name {
	case ColBERTLayout.Name, "":
		return ColBERTLayout, nil
	case NoMarkerLayout.Name:
		return NoMarkerLayout, nil
	default:
		return Layout{}, &ConfigurationError{Field: "layout", Value: name, Reason: "is not a known special-token layout"}
	}
}

// Validate checks that marker indices are usable
func (l Layout) Validate() error {
	for _, idx := range l.Markers {
		if idx < 0 {
			return &ConfigurationError{Field: "layout.markers", Value: idx, Reason: "must not be negative"}
		}
	}
	return nil
}

// Align zips tokenizer spans with model vectors. It requires exactly one
// vector per span plus one per marker, inserts a zero span at every marker
// position and returns one Record per vector in model order.
// It never truncates or pads: any length mismatch is an AlignmentError.
func (l Layout) Align(mode Mode, spans []Span, vectors [][]float64) ([]Record, error) {
	if len(spans)+len(l.Markers) != len(vectors) {
		return nil, &AlignmentError{
			Mode:    mode,
			Layout:  l.Name,
			Tokens:  len(spans),
			Markers: len(l.Markers),
			Vectors: len(vectors),
		}
	}
	corrected := make([]Span, 0, len(vectors))
	corrected = append(corrected, spans...)
	for _, idx := range l.Markers {
		if idx < 0 || idx > len(corrected) {
			return nil, &AlignmentError{
				Mode:    mode,
				Layout:  l.Name,
				Tokens:  len(spans),
				Markers: len(l.Markers),
				Vectors: len(vectors),
				Reason:  fmt.Sprintf("marker index %d outside of %d offsets", idx, len(corrected)),
			}
		}
		corrected = append(corrected, Span{})
		copy(corrected[idx+1:], corrected[idx:])
		corrected[idx] = Span{}
	}
	records := make([]Record, len(vectors))
	for i, vec := range vectors {
		records[i] = Record{Embedding: vec, Span: corrected[i]}
	}
	return records, nil
}
