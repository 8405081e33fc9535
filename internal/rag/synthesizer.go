package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultGenerationTimeout = 60 * time.Second

// Generator produces text for a prompt. A well-formed response without content
// is returned as "" and a nil error; transport, status and decoding failures are errors.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Synthesis is the outcome of one generation call. Fallback is set when the
// backend returned no content and ApologyPhrase was substituted.
type Synthesis struct {
	Text     string
	Fallback bool
}

type Synthesizer struct {
	generator Generator
	timeout   time.Duration
}

func NewSynthesizer(generator Generator, timeout time.Duration) *Synthesizer {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &Synthesizer{generator: generator, timeout: timeout}
}

// Synthesize calls the generator under the synthesizer timeout. Failures are
// never turned into a fallback answer.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string) (Synthesis, error) {
	if s.generator == nil {
		return Synthesis{}, fmt.Errorf("%w: no generation backend configured", ErrConfiguration)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		switch {
		case errors.Is(err, ErrConfiguration):
			return Synthesis{}, err
		case errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded):
			return Synthesis{}, fmt.Errorf("%w: %w: %v", ErrGeneration, context.DeadlineExceeded, err)
		default:
			return Synthesis{}, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Synthesis{Text: ApologyPhrase, Fallback: true}, nil
	}
	return Synthesis{Text: text}, nil
}
