package embedder

// Options holds the configuration shared by provider backed embedders.
type Options struct {
	// provider specifies the embedding service to use (e.g., "openai", "cohere")
	provider Provider
	// model specifies the model to use
	model string
	// dimensions asks providers that support it for shorter vectors
	dimensions int
	// truncate lets the provider cut inputs longer than the model limit
	truncate bool
}

// Option is a function type for configuring embedder Options.
// It follows the functional options pattern for clean and flexible configuration.
type Option func(*Options)

func WithProvider(provider Provider) Option {
	return func(o *Options) {
		o.provider = provider
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.model = model
	}
}

func WithDimensions(dimensions int) Option {
	return func(o *Options) {
		o.dimensions = dimensions
	}
}

func WithTruncation(truncate bool) Option {
	return func(o *Options) {
		o.truncate = truncate
	}
}

func (i Options) Provider() Provider {
	return i.provider
}

func (i Options) Model() string {
	return i.model
}

func (i Options) Dimensions() int {
	return i.dimensions
}

func (i Options) Truncate() bool {
	return i.truncate
}

// NewOptions applies opts on top of the provider defaults
func NewOptions(provider Provider, model string, opts ...Option) Options {
	ret := Options{
		provider: provider,
		model:    model,
	}
	for _, opt := range opts {
		opt(&ret)
	}
	return ret
}
