package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rebasepr.dev/rebasepr/internal/config"
	"rebasepr.dev/rebasepr/internal/forge"
	"rebasepr.dev/rebasepr/internal/rebase"
)

func newNeedsAutosquashCmd() *cobra.Command {
	var prNumber int

	cmd := &cobra.Command{
		Use:   "needs-autosquash",
		Short: "Exit 0 if rebasing the PR would fold any fixup!/squash! commits",
		Long: `needs-autosquash checks a pull request's commit range for fixup! or squash!
subjects without writing anything. It exits 0 and prints "yes" if rebasing would fold
at least one commit, exits 1 and prints "no" otherwise. Useful as a CI gate before
running rebase unconditionally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNeedsAutosquash(cmd.Context(), prNumber)
		},
	}

	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number to check")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}

func runNeedsAutosquash(ctx context.Context, prNumber int) error {
	repoInfo, err := config.RepoFromEnv()
	if err != nil {
		return err
	}

	token, err := config.Token()
	if err != nil {
		return err
	}

	client, err := forge.NewGitHubClientForHost(ctx, repoInfo.Hostname, token, repoInfo.Owner, repoInfo.Repo)
	if err != nil {
		return fmt.Errorf("configure GitHub client: %w", err)
	}

	needs, err := rebase.NeedAutosquashing(ctx, client, prNumber)
	if err != nil {
		return err
	}

	if needs {
		fmt.Fprintln(os.Stdout, "yes")
		return nil
	}

	fmt.Fprintln(os.Stdout, "no")
	os.Exit(1)
	return nil
}
