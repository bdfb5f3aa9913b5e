package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"codeberg.org/svxlink/svxaux/internal/mary"
)

// BreakerProvider stops calling a provider after repeated server failures
// and lets a single probe through once the cooldown has passed.
type BreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps provider with a circuit breaker that opens after
// failures consecutive server-side errors
func NewBreakerProvider(provider Provider, failures uint32, cooldown time.Duration) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        provider.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isServerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("MARY circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerProvider{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// GenerateAudio runs the wrapped provider through the breaker
func (b *BreakerProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.provider.GenerateAudio(ctx, text, outputFile)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: skipped, MARY server failed repeatedly: %w", b.provider.Name(), err)
	}
	return err
}

// Name returns the wrapped provider's name
func (b *BreakerProvider) Name() string {
	return b.provider.Name()
}

// IsAvailable reports an open breaker as unavailable
func (b *BreakerProvider) IsAvailable() error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: circuit breaker open", b.provider.Name())
	}
	return b.provider.IsAvailable()
}

// State returns the breaker state name
func (b *BreakerProvider) State() string {
	return b.cb.State().String()
}

// isServerFailure separates server trouble from bad input
func isServerFailure(err error) bool {
	if mary.IsConnectError(err) {
		return true
	}
	var serverErr *mary.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode >= http.StatusInternalServerError
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mary.ErrEmptyResponse)
}
