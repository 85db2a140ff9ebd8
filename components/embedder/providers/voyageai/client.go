package voyageai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/bububa/colbert-go/components/embedder"
)

// BaseURL is the VoyageAI v1 API root
const BaseURL = "https://api.voyageai.com/v1"

// Client calls the VoyageAI embeddings endpoint
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// NewClient reads the API key from VOYAGE_API_KEY unless WithAPIKey is given
func NewClient(opts ...Option) *Client {
	clt := &Client{
		apiKey:     os.Getenv("VOYAGE_API_KEY"),
		baseURL:    BaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(clt)
	}
	return clt
}

func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithBaseURL points the client at another API root, such as a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// InputType lets voyage prepend its retrieval prompt to the input
type InputType string

const (
	QueryInput InputType = "query"
	DocInput   InputType = "document"
)

// EmbeddingRequest always asks for base64 encoded float32 vectors
type EmbeddingRequest struct {
	Input           []string  `json:"input"`
	Model           string    `json:"model"`
	InputType       InputType `json:"input_type,omitempty"`
	Truncation      bool      `json:"truncation"`
	OutputDimension int       `json:"output_dimension,omitempty"`
	EncodingFormat  string    `json:"encoding_format"`
}

type EmbeddingData struct {
	Index     int             `json:"index"`
	Embedding embedder.Base64 `json:"embedding"`
}

type EmbeddingResponse struct {
	Data  []EmbeddingData `json:"data"`
	Model string          `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// APIError is returned for a non 2xx response
type APIError struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voyageai %d: %s", e.StatusCode, e.Detail)
}

// CreateEmbeddings posts req to /embeddings and decodes every vector
// keyed by its input index.
func (c *Client) CreateEmbeddings(ctx context.Context, req *EmbeddingRequest) ([]embedder.Embedding, int, error) {
	req.EncodingFormat = "base64"
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", buf)
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Detail == "" {
			apiErr.Detail = http.StatusText(resp.StatusCode)
		}
		return nil, 0, apiErr
	}

	var ret EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return nil, 0, fmt.Errorf("decode voyageai response: %w", err)
	}
	embeddings := make([]embedder.Embedding, 0, len(ret.Data))
	for _, d := range ret.Data {
		if d.Index < 0 || d.Index >= len(req.Input) {
			return nil, 0, fmt.Errorf("voyageai returned embedding index %d for %d inputs", d.Index, len(req.Input))
		}
		emb, err := d.Embedding.Decode()
		if err != nil {
			return nil, 0, fmt.Errorf("decode voyageai embedding %d: %w", d.Index, err)
		}
		embeddings = append(embeddings, embedder.Embedding{
			Object:    req.Input[d.Index],
			Index:     d.Index,
			Embedding: emb.Embedding,
		})
	}
	return embeddings, ret.Usage.TotalTokens, nil
}
