package tokenizer

// Options holds the configuration shared by tokenizers
type Options struct {
	templates Templates
}

// Option is a function type for configuring tokenizer Options.
type Option func(*Options)

// WithTemplates replaces both mode templates
func WithTemplates(templates Templates) Option {
	return func(o *Options) {
		o.templates = templates
	}
}

// WithDocumentTemplate sets the template used in document mode
func WithDocumentTemplate(t Template) Option {
	return func(o *Options) {
		o.templates.Document = t
	}
}

// WithQueryTemplate sets the template used in query mode
func WithQueryTemplate(t Template) Option {
	return func(o *Options) {
		o.templates.Query = t
	}
}

// WithMaxLength caps the token count in both modes
func WithMaxLength(n int) Option {
	return func(o *Options) {
		o.templates.Document.MaxLength = n
		o.templates.Query.MaxLength = n
	}
}

// WithQueryLength sets the padded query length, 0 disables padding
func WithQueryLength(n int) Option {
	return func(o *Options) {
		o.templates.Query.PadTo = n
	}
}

func newOptions(opts []Option) (Options, error) {
	ret := Options{
		templates: DefaultTemplates,
	}
	for _, opt := range opts {
		opt(&ret)
	}
	return ret, ret.templates.Validate()
}

func (o Options) Templates() Templates {
	return o.templates
}
