package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/zatekoja/clinicleads/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicleads/pkg/errors"
)

// BreakerProvider wraps a CompletionProvider with a circuit breaker. After
// threshold consecutive failures it fails fast with ErrGenerationFailed until
// cooldown has passed, then lets a single trial request through.
type BreakerProvider struct {
	inner   providers.CompletionProvider
	breaker *gobreaker.CircuitBreaker
}

var _ providers.CompletionProvider = (*BreakerProvider)(nil)

// NewBreakerProvider creates a breaker around inner. A threshold <= 0 disables tripping.
func NewBreakerProvider(inner providers.CompletionProvider, threshold int, cooldown time.Duration) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("generation circuit breaker state changed")
		},
	}
	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the wrapped provider's name.
func (p *BreakerProvider) Name() string {
	return p.inner.Name()
}

// Complete forwards to the wrapped provider unless the breaker is open.
func (p *BreakerProvider) Complete(ctx context.Context, prompt string) (string, error) {
	// Caller mistakes never count against the endpoint.
	if strings.TrimSpace(prompt) == "" {
		return "", apperrors.NewValidationError("prompt is required")
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s unavailable: %v", providers.ErrGenerationFailed, p.inner.Name(), err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, for health output.
func (p *BreakerProvider) State() string {
	return p.breaker.State().String()
}
