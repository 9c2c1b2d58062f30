package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/pkg/config"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// Client generates completions with Google's Gemini models.
type Client struct {
	client    *genai.Client
	modelName string
	maxTokens int32
}

var _ providers.CompletionProvider = (*Client)(nil)

// NewClient creates a Gemini client. A missing API key is a configuration error.
func NewClient(ctx context.Context, cfg *config.GenerationConfig) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, &apperrors.AppError{
			Type:    apperrors.ErrorTypeConfiguration,
			Message: "GEMINI_API_KEY is not set",
			Err:     providers.ErrGeneratorNotConfigured,
		}
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelName := cfg.GeminiModel
	if modelName == "" {
		modelName = defaultModel
	}
	return &Client{client: cl, modelName: modelName, maxTokens: int32(cfg.MaxTokens)}, nil
}

// Name returns the provider and model.
func (c *Client) Name() string {
	return "gemini/" + c.modelName
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete returns the text parts of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apperrors.NewValidationError("prompt is required")
	}

	m := c.client.GenerativeModel(c.modelName)
	if c.maxTokens > 0 {
		m.SetMaxOutputTokens(c.maxTokens)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %v", providers.ErrGenerationFailed, err)
	}

	text := candidateText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned no text", providers.ErrGenerationFailed)
	}
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
