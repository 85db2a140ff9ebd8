// Package tokenizer provides offset reporting tokenizers for late interaction models
package tokenizer

import "github.com/bububa/colbert-go/components/embedder"

// QueryLength is the minimum number of query tokens, ColBERT pads shorter
// queries with mask tokens.
const QueryLength = 32

// Template wraps the content spans of a text with the special tokens a
// model expects. Special tokens carry the zero span.
type Template struct {
	// Leading is the number of special tokens before the content, e.g. [CLS]
	Leading int `json:"leading" yaml:"leading"`
	// Trailing is the number of special tokens after the content, e.g. [SEP]
	Trailing int `json:"trailing" yaml:"trailing"`
	// MaxLength caps the total number of tokens, content is truncated to fit.
	// 0 disables truncation.
	MaxLength int `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	// PadTo pads the output with mask tokens up to this length
	PadTo int `json:"pad_to,omitempty" yaml:"pad_to,omitempty"`
}

var (
	// DocumentTemplate is [CLS] content [SEP]
	DocumentTemplate = Template{Leading: 1, Trailing: 1}
	// QueryTemplate is [CLS] content [SEP] [MASK]... padded to QueryLength
	QueryTemplate = Template{Leading: 1, Trailing: 1, PadTo: QueryLength}
	// RawTemplate adds nothing
	RawTemplate = Template{}
)

// Validate checks the template can hold content
func (t Template) Validate() error {
	if t.Leading < 0 || t.Trailing < 0 || t.MaxLength < 0 || t.PadTo < 0 {
		return &embedder.ConfigurationError{Field: "template", Value: t, Reason: "must not hold negative lengths"}
	}
	if t.MaxLength > 0 && t.MaxLength <= t.Leading+t.Trailing {
		return &embedder.ConfigurationError{Field: "template.max_length", Value: t.MaxLength, Reason: "leaves no room for content"}
	}
	return nil
}

// Apply returns the token spans of a text whose content tokens are content.
func (t Template) Apply(content []embedder.Span) []embedder.Span {
	if t.MaxLength > 0 {
		if limit := t.MaxLength - t.Leading - t.Trailing; len(content) > limit {
			content = content[:limit]
		}
	}
	size := max(t.Leading+len(content)+t.Trailing, t.PadTo)
	ret := make([]embedder.Span, 0, size)
	for i := 0; i < t.Leading; i++ {
		ret = append(ret, embedder.Span{})
	}
	ret = append(ret, content...)
	for i := 0; i < t.Trailing; i++ {
		ret = append(ret, embedder.Span{})
	}
	for len(ret) < t.PadTo {
		ret = append(ret, embedder.Span{})
	}
	return ret
}

// Templates selects a template per mode
type Templates struct {
	Document Template `json:"document" yaml:"document"`
	Query    Template `json:"query" yaml:"query"`
}

// DefaultTemplates are the ColBERT document and query templates
var DefaultTemplates = Templates{
	Document: DocumentTemplate,
	Query:    QueryTemplate,
}

// For returns the template of mode
func (t Templates) For(mode embedder.Mode) Template {
	if mode == embedder.ModeQuery {
		return t.Query
	}
	return t.Document
}

func (t Templates) Validate() error {
	if err := t.Document.Validate(); err != nil {
		return err
	}
	return t.Query.Validate()
}
