package providers

import (
	"context"
	"errors"
)

var (
	// ErrGenerationFailed covers network failures, non-2xx responses and empty
	// completions. It is never retried automatically.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGeneratorNotConfigured is returned when no generation credential is set.
	ErrGeneratorNotConfigured = errors.New("generation credential not configured")
)

// CompletionProvider sends a prompt to a text-generation endpoint and returns
// the raw completion. Repeated calls with the same prompt may return
// different text.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider and model in logs and metrics.
	Name() string
}
