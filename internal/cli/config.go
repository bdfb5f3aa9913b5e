package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"codeberg.org/svxlink/svxaux/internal/audio"
	"codeberg.org/svxlink/svxaux/internal/translation"
)

// Protocol names as typed by users
const (
	ProtocolSocket = "socket"
	ProtocolHTTP   = "http"
)

// AppName names the config file, config dirs and env prefix
const AppName = "svxaux"

// MaryEnv is the MARY server location as found in the environment, the
// same variables the SvxLink TTS scripts read
type MaryEnv struct {
	Host     string `env:"MARY_HOST"`
	Port     int    `env:"MARY_PORT"`
	Voice    string `env:"MARY_VOICE"`
	Locale   string `env:"MARY_LOCALE"`
	Protocol string `env:"MARY_PROTOCOL"`
}

// LoadMaryEnv parses the MARY_* environment variables
func LoadMaryEnv() (MaryEnv, error) {
	cfg, err := env.ParseAs[MaryEnv]()
	if err != nil {
		return MaryEnv{}, fmt.Errorf("error parsing MARY environment: %w", err)
	}
	return cfg, nil
}

func applyMaryEnv(flags *Flags) {
	cfg, err := LoadMaryEnv()
	if err != nil {
		log.Warn("Ignoring MARY environment", "err", err)
		return
	}
	if cfg.Host != "" {
		flags.Host = cfg.Host
	}
	if cfg.Port != 0 {
		flags.Port = cfg.Port
	}
	if cfg.Voice != "" {
		flags.Voice = cfg.Voice
	}
	if cfg.Locale != "" {
		flags.Locale = cfg.Locale
	}
	if cfg.Protocol != "" {
		flags.Protocol = cfg.Protocol
	}
}

// ProviderName maps a user facing protocol name to an audio provider name
func ProviderName(protocol string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case ProtocolSocket, audio.ProviderMarySocket:
		return audio.ProviderMarySocket, nil
	case ProtocolHTTP, audio.ProviderMaryHTTP:
		return audio.ProviderMaryHTTP, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown MARY protocol: %s (use socket or http)", protocol)
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search $HOME/.svxaux.yaml, then svxaux.yaml in the user config dirs
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("." + AppName)
	}

	// Environment variables
	viper.SetEnvPrefix(strings.ToUpper(AppName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		log.Debug("Using config file", "path", viper.ConfigFileUsed())
		return
	}
	if cfgFile != "" {
		log.Warn("Could not read config file", "path", cfgFile)
		return
	}

	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, AppName+".yaml")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err == nil {
			log.Debug("Using config file", "path", path)
		}
		return
	}
}

// ExpandPath resolves a leading ~ as found in config files
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// DefaultCacheDir returns the user cache dir for rendered audio
func DefaultCacheDir() string {
	scope := gap.NewScope(gap.User, AppName)
	dir, err := scope.CacheDir()
	if err != nil {
		return filepath.Join(".", ".audio_cache")
	}
	return filepath.Join(dir, "audio")
}

// SetupLogging configures the process logger from a level name
func SetupLogging(level string, debug bool) error {
	log.SetOutput(os.Stderr)
	log.SetPrefix(AppName)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	return nil
}

// GetAPIKey retrieves the API key for a translation provider from the
// environment or config
func GetAPIKey(provider string) string {
	switch provider {
	case translation.ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			return key
		}
		return viper.GetString("translate.gemini_key")
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key
		}
		return viper.GetString("translate.openai_key")
	}
}
