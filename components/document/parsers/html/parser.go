package html

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/bububa/colbert-go/components/document"
)

// NoiseTags are removed before conversion, their text would only add
// tokens unrelated to the page content
var NoiseTags = []string{"script", "style", "noscript", "template", "nav", "header", "footer", "aside", "form"}

// ContentSelectors are tried in order, the first match is converted
var ContentSelectors = []string{
	"main",
	"article",
	"[role=main]",
	"#content, #main",
	".content, .main",
	"body",
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// Parser extracts the main content of a html page as markdown
type Parser struct {
	domain    string
	selectors []string
}

var _ document.Parser = (*Parser)(nil)

type Option func(*Parser)

// WithDomain resolves relative links and images against domain
func WithDomain(domain string) Option {
	return func(p *Parser) {
		p.domain = domain
	}
}

// WithContentSelectors replaces ContentSelectors
func WithContentSelectors(selectors ...string) Option {
	return func(p *Parser) {
		p.selectors = selectors
	}
}

func NewParser(opts ...Option) *Parser {
	ret := &Parser{selectors: ContentSelectors}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Parse writes the markdown of the main content in reader to writer
func (h *Parser) Parse(ctx context.Context, reader *bytes.Reader, writer io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return err
	}
	doc.Find(strings.Join(NoiseTags, ", ")).Remove()
	content, err := h.mainContent(doc)
	if err != nil {
		return err
	}
	opts := []converter.ConvertOptionFunc{converter.WithContext(ctx)}
	if h.domain != "" {
		opts = append(opts, converter.WithDomain(h.domain))
	}
	markdown, err := htmltomarkdown.ConvertString(content, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, cleanMarkdown(markdown))
	return err
}

func (h *Parser) mainContent(doc *goquery.Document) (string, error) {
	for _, selector := range h.selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel.Html()
		}
	}
	return doc.Html()
}

// cleanMarkdown collapses blank line runs and trailing spaces so chunk
// offsets are not spent on layout whitespace
func cleanMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(content, "\n\n"))
}
