package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const BaseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"

type options struct {
	WaitForModel *bool `json:"wait_for_model,omitempty"`
}

// Parameters are feature extraction parameters
type Parameters struct {
	// Pooling is left empty for token level output
	Pooling  string `json:"pooling,omitempty"`
	Truncate *bool  `json:"truncate,omitempty"`
}

type EmbeddingRequest struct {
	Inputs     []string    `json:"inputs,omitempty"`
	Parameters *Parameters `json:"parameters,omitempty"`
	Options    options     `json:"options,omitempty"`
	Model      string      `json:"-"`
}

// Client is HuggingFace feature extraction HTTP API client.
type Client struct {
	opts Options
}

// Options are client options
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new HTTP API client and returns it.
// By default it reads the API key from HUGGING_FACE_API_KEY
// env var and uses the default Go http.Client for making API requests.
// You can override the default options via the client methods.
func NewClient(opts ...Option) *Client {
	options := Options{
		APIKey:     os.Getenv("HUGGING_FACE_API_KEY"),
		BaseURL:    BaseURL,
		HTTPClient: http.DefaultClient,
	}

	for _, apply := range opts {
		apply(&options)
	}

	return &Client{
		opts: options,
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *Options) {
		o.APIKey = apiKey
	}
}

// WithBaseURL sets the API base URL. The model name is appended to it.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) {
		o.BaseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = httpClient
	}
}

// Option is functional option.
type Option func(*Options)

// CreateEmbeddings returns one pooled vector per input
func (c *Client) CreateEmbeddings(ctx context.Context, req *EmbeddingRequest) ([][]float64, error) {
	var ret [][]float64
	if err := c.do(ctx, req, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// CreateTokenEmbeddings returns one vector per model token for every input
func (c *Client) CreateTokenEmbeddings(ctx context.Context, req *EmbeddingRequest) ([][][]float64, error) {
	var ret [][][]float64
	if err := c.do(ctx, req, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) do(ctx context.Context, req *EmbeddingRequest, ret any) error {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+req.Model, buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.opts.APIKey))
	}

	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	apiErr := new(APIError)
	if err := json.Unmarshal(respBody, apiErr); err == nil && apiErr.IsError() {
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Errors: StringList{strings.TrimSpace(string(respBody))}}
	}
	if err := json.Unmarshal(respBody, ret); err != nil {
		return fmt.Errorf("decode feature extraction response: %w", err)
	}
	return nil
}

type APIError struct {
	StatusCode int        `json:"-"`
	Errors     StringList `json:"error,omitempty"`
}

func (e APIError) IsError() bool {
	return len(e.Errors) > 0
}

func (e APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("huggingface %d: %s", e.StatusCode, strings.Join(e.Errors, "\n"))
	}
	return strings.Join(e.Errors, "\n")
}

type StringList []string

// UnmarshalJSON handles both single string and list of strings
func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	return fmt.Errorf("invalid format for StringList")
}

// MarshalJSON serializes as a single string if only one element exists, otherwise as a list
func (s StringList) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal(strings.Join(s, "\n"))
}
