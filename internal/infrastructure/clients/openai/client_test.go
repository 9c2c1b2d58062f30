package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	"github.com/zatekoja/clinicleads/internal/infrastructure/clients/openai"
	"github.com/zatekoja/clinicleads/pkg/config"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := openai.NewClient(&config.GenerationConfig{
		APIKey:       "sk-test",
		Model:        "gpt-test",
		BaseURL:      server.URL,
		MaxTokens:    1500,
		RateLimitRPM: -1,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := openai.NewClient(&config.GenerationConfig{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, providers.ErrGeneratorNotConfigured))
	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.TypeOf(err))
}

func TestClient_Complete(t *testing.T) {
	t.Run("sends chat request and returns first choice", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
				MaxTokens int `json:"max_tokens"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-test", body.Model)
			assert.Equal(t, 1500, body.MaxTokens)
			if assert.Len(t, body.Messages, 1) {
				assert.Equal(t, "user", body.Messages[0].Role)
				assert.Equal(t, "write a page", body.Messages[0].Content)
			}

			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"headline\":\"Hi\"}"}},{"message":{"content":"second"}}]}`))
		})

		text, err := client.Complete(context.Background(), "write a page")

		require.NoError(t, err)
		assert.Equal(t, `{"headline":"Hi"}`, text)
		assert.Equal(t, "openai/gpt-test", client.Name())
	})

	t.Run("non-2xx is a generation failure and is not retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Complete(context.Background(), "prompt")

		require.Error(t, err)
		assert.True(t, errors.Is(err, providers.ErrGenerationFailed))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("empty choices is a generation failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		})

		_, err := client.Complete(context.Background(), "prompt")

		assert.True(t, errors.Is(err, providers.ErrGenerationFailed))
	})

	t.Run("malformed body is a generation failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})

		_, err := client.Complete(context.Background(), "prompt")

		assert.True(t, errors.Is(err, providers.ErrGenerationFailed))
	})

	t.Run("empty prompt is rejected before calling out", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("endpoint must not be called")
		})

		_, err := client.Complete(context.Background(), "  ")

		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
	})
}
