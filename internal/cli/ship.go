package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/shipit/internal/config"
	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/internal/repo"
	"github.com/alanmeadows/shipit/internal/watch"
	"github.com/alanmeadows/shipit/internal/workflow"
)

var (
	shipFiles         string
	shipMessage       string
	shipPRTitle       string
	shipPRDescription string
	shipContext       string
	shipYes           bool
)

func init() {
	shipCmd.Flags().StringVar(&shipFiles, "files", "", "Space-separated list of files to commit (required)")
	shipCmd.Flags().StringVar(&shipMessage, "commit-message", "", "Commit message (required)")
	shipCmd.Flags().StringVar(&shipPRTitle, "pr-title", "", "Pull request title (pr review mode)")
	shipCmd.Flags().StringVar(&shipPRDescription, "pr-description", "", "Pull request description (pr review mode)")
	shipCmd.Flags().StringVar(&shipContext, "context", "", "Context description, shown in the header")
	shipCmd.Flags().BoolVarP(&shipYes, "yes", "y", false, "Commit without the confirmation prompt (terminal review mode)")
	_ = shipCmd.MarkFlagRequired("files")
	_ = shipCmd.MarkFlagRequired("commit-message")
}

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Stage, commit and push files, then review them",
	Long: `Stage the given files and commit them.

In terminal review mode (workflow.review_mode = "terminal") the staged
diff is shown for confirmation, then committed and, with
workflow.auto_push, pushed.

In pr review mode the change is committed on a feature branch, pushed,
a pull request is found or opened against workflow.base_branch, and the
pull request is watched until it is merged or changes are needed.`,
	Example: `  shipit ship --files "src/a.go src/b.go" --commit-message "Add thing"
  shipit ship --files "backlog/000001-auth/spec.md" --commit-message "Spec auth" \
    --pr-title "Auth spec" --pr-description "Initial spec for auth"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := strings.Fields(shipFiles)
		if len(files) == 0 {
			return usageError(errors.New("--files must name at least one file"))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r, err := repo.Open(".")
		if err != nil {
			return usageError(err)
		}

		wf := &workflow.Workflow{
			Config: appConfig.Workflow,
			Git:    repo.NewGit(r.Root()),
			Out:    cmd.OutOrStdout(),
		}
		if shipYes {
			wf.Confirm = func(_ context.Context, _ string) (bool, error) { return true, nil }
		}

		if appConfig.Workflow.ReviewMode == config.ReviewModePR {
			client, err := selectBackend(appConfig)
			if err != nil {
				return usageError(err)
			}
			repoName := warnIdentity(ctx, cmd.ErrOrStderr(), client)
			wf.Finder = client
			if creator, ok := client.(provider.PRCreator); ok {
				wf.Creator = creator
			}
			wf.Driver = &watch.Driver{
				Source:     provider.NewFetcher(client),
				Out:        cmd.OutOrStdout(),
				Interval:   appConfig.Watch.ParsePollInterval(),
				OnTerminal: sessionHook(appConfig, repoName, time.Now()),
			}
		}

		res, err := wf.Run(ctx, workflow.Options{
			Files:         files,
			CommitMessage: shipMessage,
			PRTitle:       shipPRTitle,
			PRDescription: shipPRDescription,
			Context:       shipContext,
		})
		if err != nil {
			return usageError(err)
		}
		var watchErr error
		if res.Watch != nil {
			watchErr = sessionError(*res.Watch)
		}
		return exitCode(res.ExitCode(), watchErr)
	},
}
