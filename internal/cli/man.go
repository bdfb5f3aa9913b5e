package cli

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

const manEnvironment = `MARY_HOST, MARY_PORT, MARY_VOICE, MARY_LOCALE and MARY_PROTOCOL
set the defaults of the matching flags.
SVXAUX_* variables override config file keys, e.g. SVXAUX_MARY_HOST.
OPENAI_API_KEY and GEMINI_API_KEY are used by catalog fill.`

func newManCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manPage, err := mcobra.NewManPage(1, root)
			if err != nil {
				return err
			}
			manPage = manPage.WithSection("Environment", manEnvironment)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), manPage.Build(roff.NewDocument()))
			return err
		},
	}
}
