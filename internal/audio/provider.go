package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"codeberg.org/svxlink/svxaux/internal/mary"
)

// Provider names accepted by NewProvider
const (
	ProviderMarySocket = "mary-socket"
	ProviderMaryHTTP   = "mary-http"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio generates audio from text and saves it to the specified file
	GenerateAudio(ctx context.Context, text string, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for audio providers
type Config struct {
	Provider string // "mary-socket" or "mary-http"
	Fallback string // Optional second protocol tried when the first one fails

	// MARY server settings
	Host      string
	Port      int
	Voice     string
	Locale    string
	AudioType string // Empty selects the protocol default (WAVE / WAVE_FILE)
	Style     string
	Effects   []mary.Effect

	Timeout           time.Duration // Per request
	RequestsPerMinute int           // 0 disables rate limiting

	EnableCache      bool
	CacheDir         string
	CompressionLevel int // zstd level, 0 selects the library default

	// Circuit breaker, disabled when BreakerFailures is 0
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          ProviderMarySocket,
		Host:              "localhost",
		Port:              mary.DefaultPort,
		Timeout:           30 * time.Second,
		RequestsPerMinute: 60,
		BreakerFailures:   3,
		BreakerCooldown:   30 * time.Second,
	}
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	var cache *Cache
	if config.EnableCache {
		if config.CacheDir == "" {
			return nil, fmt.Errorf("cache directory is required when caching is enabled")
		}
		var err error
		cache, err = NewCache(config.CacheDir, config.CompressionLevel)
		if err != nil {
			return nil, err
		}
	}

	primary, err := newMaryProvider(config, config.Provider, cache)
	if err != nil {
		return nil, err
	}

	var provider Provider = primary
	if config.Fallback != "" && config.Fallback != config.Provider {
		fallback, err := newMaryProvider(config, config.Fallback, cache)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		provider = NewProviderWithFallback(primary, fallback)
	}

	if config.BreakerFailures > 0 {
		provider = NewBreakerProvider(provider, config.BreakerFailures, config.BreakerCooldown)
	}

	return provider, nil
}

func newMaryProvider(config *Config, name string, cache *Cache) (*MaryProvider, error) {
	switch name {
	case ProviderMarySocket:
		return NewMarySocketProvider(config, cache), nil
	case ProviderMaryHTTP:
		return NewMaryHTTPProvider(config, cache), nil
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", name)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, outputFile)
	if err != nil {
		log.Warn("Primary provider failed, falling back",
			"primary", p.primary.Name(), "fallback", p.fallback.Name(), "err", err)
		return p.fallback.GenerateAudio(ctx, text, outputFile)
	}
	return nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
