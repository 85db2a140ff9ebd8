package embedder

import (
	"errors"
	"reflect"
	"testing"
)

func vectors(n int) [][]float64 {
	ret := make([][]float64, n)
	for i := range ret {
		ret[i] = []float64{float64(i), 1}
	}
	return ret
}

func TestAlign(t *testing.T) {
	spans := []Span{{0, 0}, {0, 5}, {6, 11}, {11, 12}, {0, 0}}
	records, err := ColBERTLayout.Align(ModeDocument, spans, vectors(6))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 6 {
		t.Fatalf("want 6 records, got %d", len(records))
	}
	if !records[1].Span.IsZero() {
		t.Errorf("record 1 should be the marker, got %v", records[1].Span)
	}
	if records[0].Span != spans[0] {
		t.Errorf("record 0, want %v, got %v", spans[0], records[0].Span)
	}
	for i := 2; i < 6; i++ {
		if records[i].Span != spans[i-1] {
			t.Errorf("record %d, want %v, got %v", i, spans[i-1], records[i].Span)
		}
	}
	for i, r := range records {
		if r.Embedding[0] != float64(i) {
			t.Errorf("record %d carries vector %v", i, r.Embedding)
		}
	}
}

func TestAlignMismatch(t *testing.T) {
	spans := []Span{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}}
	for _, n := range []int{0, 5, 7} {
		for _, mode := range []Mode{ModeDocument, ModeQuery} {
			_, err := ColBERTLayout.Align(mode, spans, vectors(n))
			if !errors.Is(err, ErrAlignment) {
				t.Fatalf("%s with %d vectors: want alignment error, got %v", mode, n, err)
			}
			var alignErr *AlignmentError
			if !errors.As(err, &alignErr) {
				t.Fatalf("want *AlignmentError, got %T", err)
			}
			if alignErr.Expected() != 6 || alignErr.Vectors != n || alignErr.Mode != mode {
				t.Errorf("invalid alignment error: %+v", alignErr)
			}
		}
	}
}

func TestAlignLayouts(t *testing.T) {
	spans := []Span{{0, 1}, {1, 2}}
	tests := []struct {
		name    string
		layout  Layout
		vectors int
		want    []Span
		wantErr bool
	}{
		{name: "none", layout: NoMarkerLayout, vectors: 2, want: []Span{{0, 1}, {1, 2}}},
		{name: "leading", layout: Layout{Name: "leading", Markers: []int{0}}, vectors: 3, want: []Span{{}, {0, 1}, {1, 2}}},
		{name: "trailing", layout: Layout{Name: "trailing", Markers: []int{2}}, vectors: 3, want: []Span{{0, 1}, {1, 2}, {}}},
		{name: "two markers", layout: Layout{Name: "two", Markers: []int{1, 3}}, vectors: 4, want: []Span{{0, 1}, {}, {1, 2}, {}}},
		{name: "out of range", layout: Layout{Name: "bad", Markers: []int{3}}, vectors: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := tt.layout.Align(ModeQuery, spans, vectors(tt.vectors))
			if tt.wantErr {
				if !errors.Is(err, ErrAlignment) {
					t.Fatalf("want alignment error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := make([]Span, len(records))
			for i, r := range records {
				got[i] = r.Span
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAlignDoesNotMutateSpans(t *testing.T) {
	spans := make([]Span, 2, 8)
	spans[0], spans[1] = Span{0, 1}, Span{1, 2}
	if _, err := ColBERTLayout.Align(ModeDocument, spans, vectors(3)); err != nil {
		t.Fatal(err)
	}
	if spans[1] != (Span{1, 2}) {
		t.Errorf("input spans changed: %v", spans)
	}
}

func TestLayoutByName(t *testing.T) {
	for name, want := range map[string]string{"": "colbert", "colbert": "colbert", "none": "none"} {
		l, err := LayoutByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if l.Name != want {
			t.Errorf("LayoutByName(%q), want %s, got %s", name, want, l.Name)
		}
	}
	if _, err := LayoutByName("bert"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("want configuration error, got %v", err)
	}
	if err := (Layout{Markers: []int{-1}}).Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("want configuration error, got %v", err)
	}
}
