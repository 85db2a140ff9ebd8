package splitter

import (
	"github.com/clipperhouse/uax29/graphemes"
	"github.com/clipperhouse/uax29/phrases"
	"github.com/clipperhouse/uax29/sentences"
	"github.com/clipperhouse/uax29/words"

	"github.com/bububa/colbert-go/components/embedder"
)

// segmentFunc splits p into contiguous segments covering all of p
type segmentFunc func(p []byte) [][]byte

// levels are tried from coarse to fine: a segment that holds more than
// chunk size tokens is broken down with the next level.
var levels = []segmentFunc{
	sentences.SegmentAll,
	phrases.SegmentAll,
	words.SegmentAll,
	graphemes.SegmentAll,
}

// units breaks text into the ordered, gap free spans packed into chunks.
func (o *Options) units(text []byte) []embedder.Span {
	var ret []embedder.Span
	o.segment(text, 0, 0, &ret)
	return ret
}

func (o *Options) segment(p []byte, offset int, level int, ret *[]embedder.Span) {
	var pos int
	for _, seg := range levels[level](p) {
		span := embedder.Span{Start: offset + pos, End: offset + pos + len(seg)}
		pos += len(seg)
		if level+1 < len(levels) && len(seg) > 1 && o.count(seg) > o.chunkSize {
			o.segment(seg, span.Start, level+1, ret)
			continue
		}
		*ret = append(*ret, span)
	}
	if pos < len(p) {
		// segmenters cover their input, keep any remainder as its own unit
		*ret = append(*ret, embedder.Span{Start: offset + pos, End: offset + len(p)})
	}
}
