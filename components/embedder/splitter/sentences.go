package splitter

import (
	"github.com/bububa/colbert-go/components/embedder"
)

// Sentences is a sentence aware chunker. It packs whole sentences into
// chunks of at most chunk size tokens and falls back to phrase, word and
// grapheme boundaries for sentences that do not fit in a single chunk.
type Sentences struct {
	Options
}

var _ embedder.Chunker = (*Sentences)(nil)

// New returns a Sentences chunker. Without options it uses DefaultChunkSize,
// DefaultOverlap of the chunk size and a WordsTokenCounter.
func New(opts ...Option) (*Sentences, error) {
	ret := &Sentences{
		Options: Options{
			chunkSize: DefaultChunkSize,
		},
	}
	for _, opt := range opts {
		opt(&ret.Options)
	}
	if !ret.overlapSet {
		ret.overlap = DefaultOverlap(ret.chunkSize)
	}
	if ret.tokenCounter == nil {
		ret.tokenCounter = WordsTokenCounter{}
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Split is a shortcut for New followed by Sentences.Split. A nil counter
// uses WordsTokenCounter.
func Split(text string, chunkSize int, chunkOverlap int, counter TokenCounter) ([]embedder.Chunk, error) {
	opts := []Option{
		WithChunkSize(chunkSize),
		WithOverlap(chunkOverlap),
	}
	if counter != nil {
		opts = append(opts, WithTokenCounter(counter))
	}
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return s.Split(text)
}

// Split splits text into ordered chunks carrying byte offsets into text.
// The algorithm:
//  1. breaks the text into units along sentence boundaries, cutting
//     oversized sentences at finer boundaries
//  2. grows a chunk unit by unit while the token count of its exact source
//     span stays within chunk size
//  3. starts the next chunk from the trailing units of the previous one
//     that hold at most overlap tokens and still leave room for new text
//
// Chunks cover the text without gaps and every chunk ends after the previous.
// Empty text yields no chunks.
func (s *Sentences) Split(text string) ([]embedder.Chunk, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	src := []byte(text)
	units := s.units(src)
	var chunks []embedder.Chunk
	for i := 0; i < len(units); {
		start := units[i].Start
		j := i
		tokens := s.count(src[start:units[j].End])
		for j+1 < len(units) {
			n := s.count(src[start:units[j+1].End])
			if n > s.chunkSize {
				break
			}
			j++
			tokens = n
		}
		chunks = append(chunks, embedder.Chunk{
			Index:     len(chunks),
			Text:      text[start:units[j].End],
			Start:     start,
			End:       units[j].End,
			TokenSize: tokens,
		})
		if j+1 >= len(units) {
			break
		}
		i = s.nextStart(src, units, i, j)
	}
	return chunks, nil
}

// nextStart returns the first unit of the chunk following the one made of
// units[first:last+1].
func (s *Sentences) nextStart(src []byte, units []embedder.Span, first int, last int) int {
	next := last + 1
	end := units[last].End
	for k := last; k > first; k-- {
		if s.count(src[units[k].Start:end]) > s.overlap {
			break
		}
		if s.count(src[units[k].Start:units[last+1].End]) > s.chunkSize {
			break
		}
		next = k
	}
	// a chunk never opens with units already covered that carry no tokens
	for next <= last && s.count(src[units[next].Start:units[next].End]) == 0 {
		next++
	}
	return next
}
