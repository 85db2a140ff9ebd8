package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupported is returned when no parser accepts the detected content type
var ErrUnsupported = errors.New("unsupported document type")

// Document is the extracted text of a source with metadata
type Document struct {
	buffer *bytes.Buffer
	Meta   map[string]string
}

// Text returns the extracted text, always valid UTF-8
func (d *Document) Text() string {
	if d.buffer == nil {
		return ""
	}
	return strings.ToValidUTF8(d.buffer.String(), "�")
}

// Reader returns a reader over the extracted text
func (d *Document) Reader() *bytes.Reader {
	return bytes.NewReader([]byte(d.Text()))
}

// Loader extracts text from raw content with the parser registered for
// its detected MIME type.
type Loader struct {
	parsers map[string]Parser
}

type LoaderOption func(*Loader)

// WithParser registers parser for a MIME type such as "application/pdf".
// MIME parameters are ignored.
func WithParser(mime string, parser Parser) LoaderOption {
	return func(l *Loader) {
		l.parsers[mime] = parser
	}
}

// NewLoader returns a Loader that knows plain text plus the given parsers
func NewLoader(opts ...LoaderOption) *Loader {
	ret := &Loader{
		parsers: map[string]Parser{
			MIMEText: new(TextParser),
		},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Load reads r to the end and extracts its text
func (l *Loader) Load(ctx context.Context, r io.Reader, meta map[string]string) (*Document, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return l.Parse(ctx, bs, meta)
}

// LoadFile extracts the text of a file on disk
func (l *Loader) LoadFile(ctx context.Context, fname string) (*Document, error) {
	f, err := NewFile(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.Load(ctx, f, f.Meta())
}

// Parse detects the MIME type of bs, walking up to its parent types, and
// extracts text with the first registered parser.
func (l *Loader) Parse(ctx context.Context, bs []byte, meta map[string]string) (*Document, error) {
	detected := mimetype.Detect(bs)
	parser := l.parserFor(detected)
	if parser == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected.String())
	}
	doc := &Document{
		buffer: new(bytes.Buffer),
		Meta:   make(map[string]string, len(meta)+1),
	}
	for k, v := range meta {
		doc.Meta[k] = v
	}
	doc.Meta["mime"] = detected.String()
	if err := parser.Parse(ctx, bytes.NewReader(bs), doc.buffer); err != nil {
		return nil, fmt.Errorf("parse %s: %w", detected.String(), err)
	}
	return doc, nil
}

func (l *Loader) parserFor(detected *mimetype.MIME) Parser {
	for m := detected; m != nil; m = m.Parent() {
		for mime, parser := range l.parsers {
			if m.Is(mime) {
				return parser
			}
		}
	}
	return nil
}
