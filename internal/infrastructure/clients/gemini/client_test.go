package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/pkg/config"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), &config.GenerationConfig{APIKey: "openai-only"})

	assert.True(t, errors.Is(err, providers.ErrGeneratorNotConfigured))
	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.TypeOf(err))
}

func TestCandidateText(t *testing.T) {
	assert.Empty(t, candidateText(nil))
	assert.Empty(t, candidateText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"headline":`), genai.Text(`"Hi"}`)}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, `{"headline":"Hi"}`, candidateText(resp))
}
