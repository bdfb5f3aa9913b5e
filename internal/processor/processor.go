package processor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"codeberg.org/svxlink/svxaux/internal/audio"
	"codeberg.org/svxlink/svxaux/internal/cli"
	"codeberg.org/svxlink/svxaux/internal/mary"
	"codeberg.org/svxlink/svxaux/internal/playback"
	"codeberg.org/svxlink/svxaux/internal/store"
	"codeberg.org/svxlink/svxaux/internal/translation"
)

// Processor runs svxaux commands
type Processor struct {
	flags *cli.Flags
	out   io.Writer

	newProvider   func(*audio.Config) (audio.Provider, error)
	newTranslator func(context.Context, translation.Config) (translation.Translator, error)
	play          func(ctx context.Context, path string) error

	history       *store.Store
	historyOpened bool
}

// NewProcessor creates a new processor writing reports to stdout
func NewProcessor(flags *cli.Flags) *Processor {
	return &Processor{
		flags:         flags,
		out:           os.Stdout,
		newProvider:   audio.NewProvider,
		newTranslator: translation.NewTranslator,
		play:          playback.PlayFile,
	}
}

// Close releases the history database
func (p *Processor) Close() error {
	if p.history == nil {
		return nil
	}
	return p.history.Close()
}

// AudioConfig builds the provider configuration from flags and config file
func (p *Processor) AudioConfig() (*audio.Config, error) {
	config := audio.DefaultProviderConfig()

	provider, err := cli.ProviderName(stringSetting("mary.protocol", p.flags.Protocol))
	if err != nil {
		return nil, err
	}
	if provider != "" {
		config.Provider = provider
	}
	if config.Fallback, err = cli.ProviderName(stringSetting("mary.fallback", p.flags.Fallback)); err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}

	config.Host = stringSetting("mary.host", p.flags.Host)
	config.Port = intSetting("mary.port", p.flags.Port)
	config.Voice = stringSetting("mary.voice", p.flags.Voice)
	config.Locale = stringSetting("mary.locale", p.flags.Locale)
	config.AudioType = stringSetting("mary.audio_type", p.flags.AudioType)
	config.Style = stringSetting("mary.style", p.flags.Style)

	effectSpecs := p.flags.Effects
	if viper.IsSet("mary.effects") {
		effectSpecs = viper.GetStringSlice("mary.effects")
	}
	if config.Effects, err = mary.ParseEffects(effectSpecs); err != nil {
		return nil, err
	}

	if viper.IsSet("mary.timeout") {
		config.Timeout = viper.GetDuration("mary.timeout")
	} else if p.flags.Timeout > 0 {
		config.Timeout = p.flags.Timeout
	}
	config.RequestsPerMinute = intSetting("mary.rate_limit", p.flags.RateLimit)
	config.BreakerFailures = uint32(max(0, intSetting("mary.breaker_failures", p.flags.BreakerTrip)))

	noCache := p.flags.NoCache
	if viper.IsSet("cache.disabled") {
		noCache = viper.GetBool("cache.disabled")
	}
	config.EnableCache = !noCache
	config.CacheDir = cli.ExpandPath(stringSetting("cache.dir", p.flags.CacheDir))
	if config.CacheDir == "" {
		config.CacheDir = cli.DefaultCacheDir()
	}
	config.CompressionLevel = viper.GetInt("cache.compression_level")

	return config, nil
}

// historyStore opens the history database on first use. A database that
// cannot be opened disables history for this run.
func (p *Processor) historyStore() *store.Store {
	if p.historyOpened {
		return p.history
	}
	p.historyOpened = true

	if p.flags.NoHistory || viper.GetBool("history.disabled") {
		return nil
	}

	path := cli.ExpandPath(stringSetting("history.db", p.flags.HistoryDB))
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			log.Warn("History disabled", "err", err)
			return nil
		}
	}

	s, err := store.Open(path)
	if err != nil {
		log.Warn("History disabled", "path", path, "err", err)
		return nil
	}
	p.history = s
	return s
}

// stringSetting prefers an explicit viper value (flag, env or config)
// over the flag default
func stringSetting(key, fallback string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

func intSetting(key string, fallback int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}
