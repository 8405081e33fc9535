package ai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// EmbeddingConfig holds API settings for text-embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// EmbeddingClient calls an OpenAI-compatible /embeddings endpoint.
type EmbeddingClient struct {
	cfg        EmbeddingConfig
	httpClient *http.Client
}

func NewEmbeddingClient(cfg EmbeddingConfig, httpClient *http.Client) *EmbeddingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &EmbeddingClient{cfg: cfg, httpClient: httpClient}
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.request(ctx, "embedding", text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding per input text, in input order. Texts are
// sent as they are so the result always lines up with the input.
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := c.request(ctx, "embedding batch", texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (c *EmbeddingClient) request(ctx context.Context, service string, input any) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": c.cfg.Model,
		"input": input,
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/embeddings"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var parsed embeddingResponse
	if err := postJSON(ctx, c.httpClient, service, url, headers, reqBody, &parsed); err != nil {
		return nil, err
	}
	sort.SliceStable(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		result[i] = parsed.Data[i].Embedding
	}
	return result, nil
}
