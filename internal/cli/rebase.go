package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"rebasepr.dev/rebasepr/internal/config"
	"rebasepr.dev/rebasepr/internal/forge"
	"rebasepr.dev/rebasepr/internal/log"
	"rebasepr.dev/rebasepr/internal/rebase"
	"rebasepr.dev/rebasepr/internal/tui"
)

func newRebaseCmd() *cobra.Command {
	var (
		prNumber int
		yes      bool
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "rebase",
		Short: "Rebase a pull request's head branch onto the current tip of its base",
		Long: `Rebase rewrites a pull request's commits onto the current tip of its base branch.
fixup!/squash! commits are folded the way "git rebase --autosquash" would fold them.
Everything happens through the forge's API; no local clone or git process is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebase(cmd.Context(), prNumber, yes, quiet)
		},
	}

	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number to rebase")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}

func runRebase(ctx context.Context, prNumber int, yes, quiet bool) error {
	logger, err := log.NewWithFile(log.DefaultLogFilePath())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logger.Close() }()

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

	if !yes && tui.IsTTY() {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Rebase PR #%d on %s/%s?", prNumber, repoInfo.Owner, repoInfo.Repo),
			Default: true,
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return fmt.Errorf("canceled")
		}
		if !confirmed {
			logger.Info("aborted")
			return nil
		}
	}

	useTUI := !quiet && tui.IsTTY()
	if useTUI {
		logger.SetQuiet(true)
	}

	updates := make(chan rebase.ProgressUpdate, 16)
	opts := rebase.Options{
		Committer:        forge.Identity{Name: "rebasepr", Email: "rebasepr@users.noreply.github.com"},
		TempRefNamespace: config.TempRefNamespace(),
		Progress: func(u rebase.ProgressUpdate) {
			if !useTUI {
				status := "running"
				switch u.Status {
				case rebase.StatusDone:
					status = "done"
				case rebase.StatusFailed:
					status = "failed"
				}
				logger.Debug("[%d/%d] %s %s: %s", u.Index+1, u.Total, u.Item.Action, u.Item.Subject, status)
				return
			}
			updates <- u
		},
	}

	var newHead forge.CommitID
	var runErr error

	if useTUI {
		done := make(chan struct{})
		go func() {
			defer close(done)
			newHead, runErr = rebase.Rebase(ctx, client, prNumber, opts)
			close(updates)
		}()
		if err := tui.RunProgress(updates); err != nil {
			return err
		}
		for range updates {
		}
		<-done
		logger.SetQuiet(false)
	} else {
		newHead, runErr = rebase.Rebase(ctx, client, prNumber, opts)
	}

	if runErr != nil {
		logger.Error("rebase failed: %v", runErr)
		return runErr
	}

	fmt.Fprintf(os.Stdout, "rebased PR #%d: new head %s\n", prNumber, newHead)
	return nil
}
