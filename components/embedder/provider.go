package embedder

type Provider = string

const (
	ProviderOpenAI      Provider = "OpenAI"
	ProviderVoyageAI    Provider = "VoyageAI"
	ProviderCohere      Provider = "Cohere"
	ProviderGemini      Provider = "Gemini"
	ProviderHuggingFace Provider = "HuggingFace"
)

// Providers lists the supported providers in a stable order
var Providers = []Provider{
	ProviderHuggingFace,
	ProviderOpenAI,
	ProviderVoyageAI,
	ProviderCohere,
	ProviderGemini,
}
