package document

import (
	"bytes"
	"context"
	"io"
)

// MIME types with a builtin parser package
const (
	MIMEText = "text/plain"
	MIMEHTML = "text/html"
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Parser interface {
	Parse(context.Context, *bytes.Reader, io.Writer) error
}

// TextParser copies plain text as is
type TextParser struct{}

var _ Parser = (*TextParser)(nil)

func (p *TextParser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	_, err := reader.WriteTo(writer)
	return err
}
