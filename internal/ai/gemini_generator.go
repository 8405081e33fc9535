package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel      = "gemini-1.5-flash"
	defaultGeminiAPIVersion = "v1beta"
)

// GeminiGenerator calls Gemini generateContent through the genai client.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiGenerator builds a Gemini API client. An empty BaseURL uses the
// public endpoint.
func NewGeminiGenerator(cfg GeneratorConfig, httpClient *http.Client) (*GeminiGenerator, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: defaultGeminiAPIVersion,
		},
	}
	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate returns the text parts of the first candidate. A response with no
// candidates (blocked or empty) is reported as empty content.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", geminiStatusError(err))
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// geminiStatusError reports API failures as StatusError like the other clients.
func geminiStatusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Service: "gemini", StatusCode: apiErr.Code, Body: truncate(apiErr.Message, 512)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &StatusError{Service: "gemini", StatusCode: apiErrPtr.Code, Body: truncate(apiErrPtr.Message, 512)}
	}
	return err
}
