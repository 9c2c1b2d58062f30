package generation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/adapters/generation"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
)

type scriptedProvider struct {
	calls int
	err   error
	text  string
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestBreakerProvider_TripsAfterThreshold(t *testing.T) {
	inner := &scriptedProvider{err: fmt.Errorf("%w: status 500", providers.ErrGenerationFailed)}
	p := generation.NewBreakerProvider(inner, 2, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := p.Complete(context.Background(), "prompt")
		require.Error(t, err)
	}
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "open", p.State())

	_, err := p.Complete(context.Background(), "prompt")

	assert.True(t, errors.Is(err, providers.ErrGenerationFailed))
	assert.Equal(t, 2, inner.calls, "open breaker must not call the endpoint")
}

func TestBreakerProvider_PassesThrough(t *testing.T) {
	inner := &scriptedProvider{text: "{}"}
	p := generation.NewBreakerProvider(inner, 1, time.Hour)

	text, err := p.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "{}", text)
	assert.Equal(t, "scripted", p.Name())
	assert.Equal(t, "closed", p.State())
}

func TestBreakerProvider_EmptyPromptDoesNotTrip(t *testing.T) {
	inner := &scriptedProvider{text: "{}"}
	p := generation.NewBreakerProvider(inner, 1, time.Hour)

	_, err := p.Complete(context.Background(), "")
	require.Error(t, err)

	_, err = p.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}
