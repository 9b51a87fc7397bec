// Package commands wires the groupsplit CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/groupsplit/pkg/logging"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "groupsplit",
		Short:   "Split group expenses and work out who owes whom",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSettleCommand())

	return rootCmd
}
