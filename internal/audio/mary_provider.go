package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"codeberg.org/svxlink/svxaux/internal/mary"
)

// synthesizer is the part of a MARY protocol client the provider needs
type synthesizer interface {
	Synthesize(ctx context.Context, req *mary.Request, w io.Writer) (int64, error)
}

// MaryProvider implements Provider on top of one of the MARY protocols
type MaryProvider struct {
	name        string
	client      synthesizer
	config      *Config
	audioType   string
	cache       *Cache
	rateLimiter *rate.Limiter
}

// NewMarySocketProvider creates a provider using the socket protocol
func NewMarySocketProvider(config *Config, cache *Cache) *MaryProvider {
	return newMaryProviderWith(ProviderMarySocket, mary.NewSocketClient(config.Timeout), mary.DefaultSocketAudio, config, cache)
}

// NewMaryHTTPProvider creates a provider using the HTTP interface
func NewMaryHTTPProvider(config *Config, cache *Cache) *MaryProvider {
	return newMaryProviderWith(ProviderMaryHTTP, mary.NewHTTPClient(config.Timeout), mary.DefaultHTTPAudio, config, cache)
}

func newMaryProviderWith(name string, client synthesizer, defaultAudio string, config *Config, cache *Cache) *MaryProvider {
	audioType := config.AudioType
	if audioType == "" {
		audioType = defaultAudio
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1)
	}

	return &MaryProvider{
		name:        name,
		client:      client,
		config:      config,
		audioType:   audioType,
		cache:       cache,
		rateLimiter: limiter,
	}
}

// Request builds the MARY request for text
func (p *MaryProvider) Request(text string) *mary.Request {
	return &mary.Request{
		Host:      p.config.Host,
		Port:      p.config.Port,
		Voice:     p.config.Voice,
		Locale:    p.config.Locale,
		AudioType: p.audioType,
		Style:     p.config.Style,
		Effects:   p.config.Effects,
		Text:      text,
	}
}

// GenerateAudio synthesizes text and writes the server's bytes to outputFile
func (p *MaryProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	req := p.Request(text)
	if err := req.Validate(); err != nil {
		return err
	}
	outputFile = OutputPath(outputFile, p.audioType)

	var key string
	if p.cache != nil {
		key = p.cache.Key(req)
		if data, ok := p.cache.Get(key); ok {
			log.Debug("Audio cache hit", "provider", p.name, "file", outputFile)
			return writeFileAtomic(outputFile, bytes.NewReader(data))
		}
	}

	if p.rateLimiter != nil {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	log.Debug("MARY request", "provider", p.name, "addr", req.Addr(), "voice", req.Voice, "locale", req.Locale)

	var captured bytes.Buffer
	err := writeFileWith(outputFile, func(w io.Writer) error {
		if p.cache != nil {
			w = io.MultiWriter(w, &captured)
		}
		n, err := p.client.Synthesize(ctx, req, w)
		if err != nil {
			return err
		}
		log.Debug("MARY response", "provider", p.name, "bytes", n)
		return nil
	})
	if err != nil {
		return err
	}

	if p.cache != nil {
		if err := p.cache.Put(key, captured.Bytes()); err != nil {
			log.Warn("Failed to cache audio", "err", err)
		}
	}
	return nil
}

// Name returns the provider name
func (p *MaryProvider) Name() string {
	return p.name
}

// IsAvailable checks that the MARY server accepts connections
func (p *MaryProvider) IsAvailable() error {
	addr := net.JoinHostPort(p.config.Host, fmt.Sprint(p.config.Port))
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return &mary.ConnectError{Addr: addr, Err: err}
	}
	return conn.Close()
}

// OutputPath appends the extension matching audioType when outputFile has none
func OutputPath(outputFile, audioType string) string {
	if filepath.Ext(outputFile) != "" {
		return outputFile
	}
	return outputFile + extensionFor(audioType)
}

func extensionFor(audioType string) string {
	switch strings.TrimSuffix(strings.ToUpper(audioType), "_FILE") {
	case "AU":
		return ".au"
	case "AIFF", "AIFC":
		return ".aiff"
	case "MP3":
		return ".mp3"
	case "OGG", "VORBIS":
		return ".ogg"
	default:
		return ".wav"
	}
}

// writeFileAtomic copies r to path through a temporary file
func writeFileAtomic(path string, r io.Reader) error {
	return writeFileWith(path, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

// writeFileWith lets fill write into a temp file next to path and renames it
// into place on success, so a failed request never leaves a truncated clip.
func writeFileWith(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".svxaux-*.part")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}
