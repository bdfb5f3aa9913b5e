package cli

import (
	"time"

	"codeberg.org/svxlink/svxaux/internal/audio"
	"codeberg.org/svxlink/svxaux/internal/translation"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	LogLevel  string
	Debug     bool
	NoHistory bool
	HistoryDB string

	// MARY flags
	Host        string
	Port        int
	Protocol    string
	Fallback    string
	Voice       string
	Locale      string
	AudioType   string
	Style       string
	Effects     []string
	Timeout     time.Duration
	RateLimit   int
	NoCache     bool
	CacheDir    string
	BreakerTrip int

	// say flags
	Output    string
	OutputDir string
	BatchFile string
	Force     bool
	Play      bool

	// catalog flags
	Watch          bool
	Strict         bool
	NoBackup       bool
	ArchiveDir     string
	KeepBackups    int
	TranslateAPI   string
	TranslateModel string
	ExportOutput   string

	// history flags
	Limit int
}

// NewFlags creates a new Flags instance with default values. MARY
// settings start from the MARY_* environment.
func NewFlags() *Flags {
	def := audio.DefaultProviderConfig()
	flags := &Flags{
		LogLevel:     "warn",
		Host:         def.Host,
		Port:         def.Port,
		Protocol:     ProtocolSocket,
		Timeout:      def.Timeout,
		RateLimit:    def.RequestsPerMinute,
		BreakerTrip:  int(def.BreakerFailures),
		OutputDir:    ".",
		KeepBackups:  10,
		TranslateAPI: translation.ProviderOpenAI,
		Limit:        20,
	}
	applyMaryEnv(flags)
	return flags
}
