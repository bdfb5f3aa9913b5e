package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/svxlink/svxaux/internal/cli"
	"codeberg.org/svxlink/svxaux/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	proc := processor.NewProcessor(flags)

	rootCmd := cli.CreateRootCommand(flags, handlers(proc, flags))
	rootCmd.SetContext(ctx)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	err := rootCmd.ExecuteContext(ctx)
	proc.Close()
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handlers(proc *processor.Processor, flags *cli.Flags) cli.Handlers {
	return cli.Handlers{
		Say: func(cmd *cobra.Command, args []string) error {
			if flags.BatchFile != "" {
				if len(args) > 0 {
					return errors.New("text argument and --batch are mutually exclusive")
				}
				return proc.SayBatch(cmd.Context())
			}
			if len(args) == 0 {
				return errors.New("no text given (pass text or use --batch)")
			}
			return proc.Say(cmd.Context(), args[0])
		},
		Voices: func(cmd *cobra.Command, args []string) error {
			return proc.ListVoices(cmd.Context())
		},
		CatalogCheck: func(cmd *cobra.Command, args []string) error {
			return proc.CheckCatalogs(cmd.Context(), args[0], args[1:])
		},
		CatalogStats: func(cmd *cobra.Command, args []string) error {
			return proc.PrintStats(cmd.Context(), args)
		},
		CatalogSync: func(cmd *cobra.Command, args []string) error {
			return proc.SyncCatalogs(cmd.Context(), args[0], args[1:])
		},
		CatalogFill: func(cmd *cobra.Command, args []string) error {
			return proc.FillCatalogs(cmd.Context(), args[0], args[1:])
		},
		CatalogExport: func(cmd *cobra.Command, args []string) error {
			return proc.ExportCatalog(cmd.Context(), args[0])
		},
		History: func(cmd *cobra.Command, args []string) error {
			return proc.PrintHistory(cmd.Context())
		},
	}
}
