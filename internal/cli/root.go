// Package cli wires the rebasepr commands to cobra.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the rebasepr root command and its subcommands.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "rebasepr",
		Short:   "Rebase a pull request entirely through its forge's API",
		Long:    `rebasepr rewrites a pull request's commit history onto the current tip of its base branch, folding any fixup!/squash! commits along the way, without cloning the repository or running git locally.`,
		Version: version,
	}

	rootCmd.AddCommand(newRebaseCmd())
	rootCmd.AddCommand(newNeedsAutosquashCmd())

	return rootCmd
}
