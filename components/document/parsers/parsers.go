package parsers

import (
	"github.com/bububa/colbert-go/components/document"
	"github.com/bububa/colbert-go/components/document/parsers/docx"
	"github.com/bububa/colbert-go/components/document/parsers/html"
	"github.com/bububa/colbert-go/components/document/parsers/pdf"
	"github.com/bububa/colbert-go/components/document/parsers/xlsx"
)

// NewLoader returns a document.Loader with every builtin parser registered.
// opts may override a builtin parser.
func NewLoader(opts ...document.LoaderOption) *document.Loader {
	builtin := []document.LoaderOption{
		document.WithParser(document.MIMEHTML, html.NewParser()),
		document.WithParser(document.MIMEPDF, pdf.NewParser()),
		document.WithParser(document.MIMEDOCX, new(docx.Parser)),
		document.WithParser(document.MIMEXLSX, xlsx.NewParser()),
	}
	return document.NewLoader(append(builtin, opts...)...)
}
