package ai

import (
	"fmt"
	"net/http"
	"strings"

	"laolaw-rag/internal/rag"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// GeneratorConfig selects and configures the generation backend.
type GeneratorConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
}

// NewGenerator builds the configured backend. A missing API key or an unknown
// provider is a configuration error.
func NewGenerator(cfg GeneratorConfig, httpClient *http.Client) (rag.Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: llm api key is not set", rag.ErrConfiguration)
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	case ProviderGemini:
		g, err := NewGeminiGenerator(cfg, httpClient)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rag.ErrConfiguration, err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", rag.ErrConfiguration, cfg.Provider)
	}
}
