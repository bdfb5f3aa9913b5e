package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/svxlink/svxaux/internal"
)

// RunFunc is the body of a subcommand
type RunFunc func(cmd *cobra.Command, args []string) error

// Handlers connects subcommands to their implementation
type Handlers struct {
	Say           RunFunc
	Voices        RunFunc
	CatalogCheck  RunFunc
	CatalogStats  RunFunc
	CatalogSync   RunFunc
	CatalogFill   RunFunc
	CatalogExport RunFunc
	History       RunFunc
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, h Handlers) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "svxaux",
		Short: "SvxLink auxiliary tools",
		Long: `svxaux renders announcement clips with a MARY TTS server and keeps
the Qt Linguist catalogs of Qtel in shape.

Examples:
  svxaux say "Welcome to the SK3AB repeater" -o welcome.wav
  svxaux say --batch announcements.txt --output-dir sounds/
  svxaux voices --locale de
  svxaux catalog check translations/qtel.ts
  svxaux catalog sync translations/qtel.ts translations/qtel_sv.ts`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return SetupLogging(viper.GetString("log.level"), flags.Debug)
		},
	}

	setupPersistentFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newSayCommand(flags, h.Say),
		newVoicesCommand(flags, h.Voices),
		newCatalogCommand(flags, h),
		newHistoryCommand(flags, h.History),
	)
	rootCmd.AddCommand(newManCommand(rootCmd))

	return rootCmd
}

func newSayCommand(flags *Flags, run RunFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "say [text]",
		Short: "Synthesize announcement text into an audio file",
		Long: `Sends text to the MARY server and writes the returned audio
byte-for-byte to a file. Without text, --batch reads one clip per line
("name = text" or just "text").`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output file (default: derived from the text)")
	cmd.Flags().StringVar(&flags.OutputDir, "output-dir", flags.OutputDir, "Output directory for derived and batch file names")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Synthesize clips listed in file")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "Overwrite existing batch clips")
	cmd.Flags().BoolVar(&flags.Play, "play", false, "Play the clip on the local sound device (WAVE only)")
	cmd.Flags().StringVar(&flags.AudioType, "audio-type", "", "MARY audio type: WAVE, AU, AIFF, MP3 (default: protocol default)")
	cmd.Flags().StringVar(&flags.Style, "style", "", "Voice style")
	cmd.Flags().StringArrayVar(&flags.Effects, "effect", nil, "Audio effect as Name:params, repeatable (e.g. Robot:amount=60)")
	cmd.Flags().IntVar(&flags.RateLimit, "rate-limit", flags.RateLimit, "Maximum MARY requests per minute (0 disables)")
	cmd.Flags().BoolVar(&flags.NoCache, "no-cache", false, "Do not use the audio cache")
	cmd.Flags().StringVar(&flags.CacheDir, "cache-dir", "", "Audio cache directory (default: user cache dir)")
	cmd.Flags().IntVar(&flags.BreakerTrip, "breaker-failures", flags.BreakerTrip, "Consecutive server failures before further requests are skipped (0 disables)")

	bindFlag("say.output_dir", cmd, "output-dir")
	bindFlag("mary.audio_type", cmd, "audio-type")
	bindFlag("mary.style", cmd, "style")
	bindFlag("mary.effects", cmd, "effect")
	bindFlag("mary.rate_limit", cmd, "rate-limit")
	bindFlag("cache.disabled", cmd, "no-cache")
	bindFlag("cache.dir", cmd, "cache-dir")
	bindFlag("mary.breaker_failures", cmd, "breaker-failures")

	return cmd
}

func newVoicesCommand(flags *Flags, run RunFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voices and locales of the MARY server",
		Long: `Queries /voices and /locales on the MARY HTTP interface and prints
the voices grouped by locale. --locale filters by locale prefix.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
}

func newCatalogCommand(flags *Flags, h Handlers) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Check and maintain Qt Linguist .ts catalogs",
	}

	check := &cobra.Command{
		Use:   "check <base.ts> [locale.ts...]",
		Short: "Verify locale catalogs cover every message of the base catalog",
		Long: `Every active message of the base catalog must have a finished or
unfinished entry in each locale catalog. Without locale files, the
<app>_*.ts siblings of the base catalog are checked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: h.CatalogCheck,
	}
	check.Flags().BoolVarP(&flags.Watch, "watch", "w", false, "Re-run the check whenever a catalog changes")
	check.Flags().BoolVar(&flags.Strict, "strict", false, "Treat warnings as errors")
	bindFlag("catalog.strict", check, "strict")

	stats := &cobra.Command{
		Use:   "stats <catalog.ts...>",
		Short: "Print translation progress per catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.CatalogStats,
	}

	sync := &cobra.Command{
		Use:   "sync <base.ts> [locale.ts...]",
		Short: "Merge the message set of the base catalog into locale catalogs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.CatalogSync,
	}

	fill := &cobra.Command{
		Use:   "fill <base.ts> [locale.ts...]",
		Short: "Sync, then suggest translations for empty unfinished messages",
		Long: `Suggestions come from OpenAI or Gemini and stay unfinished until a
translator approves them in Qt Linguist.`,
		Args: cobra.MinimumNArgs(1),
		RunE: h.CatalogFill,
	}
	fill.Flags().StringVar(&flags.TranslateAPI, "translate-api", flags.TranslateAPI, "Suggestion backend: openai or gemini")
	fill.Flags().StringVar(&flags.TranslateModel, "translate-model", "", "Model name (default depends on backend)")
	bindFlag("translate.provider", fill, "translate-api")
	bindFlag("translate.model", fill, "translate-model")

	addBackupFlags(sync.Flags(), flags)
	addBackupFlags(fill.Flags(), flags)

	export := &cobra.Command{
		Use:   "export <catalog.ts>",
		Short: "Export a catalog as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  h.CatalogExport,
	}
	export.Flags().StringVarP(&flags.ExportOutput, "output", "o", "", "Output file (default: stdout)")

	cmd.AddCommand(check, stats, sync, fill, export)
	return cmd
}

// addBackupFlags registers the flags of commands that rewrite catalogs
func addBackupFlags(fs *pflag.FlagSet, flags *Flags) {
	fs.BoolVar(&flags.NoBackup, "no-backup", false, "Do not back up catalogs before writing")
	fs.StringVar(&flags.ArchiveDir, "archive-dir", "", "Backup directory (default: archive/ next to the catalog)")
	fs.IntVar(&flags.KeepBackups, "keep-backups", flags.KeepBackups, "Backups kept per catalog (0 keeps all)")
}

func newHistoryCommand(flags *Flags, run RunFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent syntheses and catalog checks",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", flags.Limit, "Number of entries per table (0 shows all)")
	return cmd
}

func setupPersistentFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.svxaux.yaml)")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	pf.BoolVar(&flags.Debug, "debug", false, "Debug logging with caller information")
	pf.BoolVar(&flags.NoHistory, "no-history", false, "Do not record runs in the history database")
	pf.StringVar(&flags.HistoryDB, "history-db", "", "History database (default: user data dir)")

	// MARY server flags
	pf.StringVar(&flags.Host, "host", flags.Host, "MARY server host ($MARY_HOST)")
	pf.IntVar(&flags.Port, "port", flags.Port, "MARY server port ($MARY_PORT)")
	pf.StringVar(&flags.Protocol, "protocol", flags.Protocol, "MARY protocol: socket or http ($MARY_PROTOCOL)")
	pf.StringVar(&flags.Fallback, "fallback", "", "Protocol to try when the first one fails")
	pf.StringVar(&flags.Voice, "voice", flags.Voice, "MARY voice ($MARY_VOICE)")
	pf.StringVar(&flags.Locale, "locale", flags.Locale, "MARY locale ($MARY_LOCALE)")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Per request timeout")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("history.disabled", pf.Lookup("no-history"))
	viper.BindPFlag("history.db", pf.Lookup("history-db"))
	viper.BindPFlag("mary.host", pf.Lookup("host"))
	viper.BindPFlag("mary.port", pf.Lookup("port"))
	viper.BindPFlag("mary.protocol", pf.Lookup("protocol"))
	viper.BindPFlag("mary.fallback", pf.Lookup("fallback"))
	viper.BindPFlag("mary.voice", pf.Lookup("voice"))
	viper.BindPFlag("mary.locale", pf.Lookup("locale"))
	viper.BindPFlag("mary.timeout", pf.Lookup("timeout"))
}

func bindFlag(key string, cmd *cobra.Command, name string) {
	viper.BindPFlag(key, cmd.Flags().Lookup(name))
}
