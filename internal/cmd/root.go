// Package cmd is the stockroom command line: the HTTP server and a one-shot
// question runner over fixtures.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
)

// NewRootCmd returns the root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockroom",
		Short:         "Grounded inventory assistant",
		Long:          "stockroom answers natural-language questions about a household's inventory, grounded in its records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newAskCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
