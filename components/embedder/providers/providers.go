package providers

import (
	"github.com/bububa/colbert-go/components/embedder/providers/cohere"
	"github.com/bububa/colbert-go/components/embedder/providers/gemini"
	"github.com/bububa/colbert-go/components/embedder/providers/huggingface"
	"github.com/bububa/colbert-go/components/embedder/providers/openai"
	"github.com/bububa/colbert-go/components/embedder/providers/voyageai"
)

var (
	FromOpenAI            = openai.New
	FromVoyageAI          = voyageai.New
	FromCohere            = cohere.New
	FromGemini            = gemini.New
	FromHuggingFace       = huggingface.New
	FromHuggingFaceTokens = huggingface.NewTokenEmbedder
)
