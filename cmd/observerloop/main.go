// Command observerloop runs the producer/consumer pipeline with the given
// numbers of produced-interest and consumed-interest subscribers.
//
//	observerloop [produced] [consumed] [flags]
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "observerloop [produced] [consumed]",
		Short: "Run a bounded producer/consumer loop with type-filtered subscribers",
		Long: `observerloop creates the given numbers of "produced" and "consumed"
subscribers (1 each by default), runs 2*(produced+consumed) producer and
consumer cycles, then unsubscribes everyone and exits.

Non-numeric counts are treated as 0.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	cobra.CheckErr(opts.bind(cmd.Flags()))
	return cmd
}
