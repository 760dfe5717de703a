package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/internal/watch"
)

var watchIntervalFlag int

func init() {
	watchCmd.Flags().IntVar(&watchIntervalFlag, "interval", 0, "Seconds between polls (overrides watch.poll_interval)")
}

var watchCmd = &cobra.Command{
	Use:   "watch <branch-or-pr> [interval-seconds]",
	Short: "Poll a pull request until it is merged or changes are needed",
	Long: `Watch a pull request's review state.

The argument is a PR number, owner/repo#number, a PR URL, or a branch
name. A branch is resolved to its open pull request.

Exits 0 when the PR merges, 1 when reviewers ask for changes (or submit
a review on the latest commit without approving), and 2 on errors or
interruption.`,
	Example: `  shipit watch 42
  shipit watch feature/000001-auth 15
  shipit watch https://github.com/org/repo/pull/42 --interval 60`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := resolveInterval(args, watchIntervalFlag, cmd.Flags().Changed("interval"))
		if err != nil {
			return usageError(err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := selectBackend(appConfig)
		if err != nil {
			return usageError(err)
		}
		repoName := warnIdentity(ctx, cmd.ErrOrStderr(), client)

		d := &watch.Driver{
			Source:     provider.NewFetcher(client),
			Out:        cmd.OutOrStdout(),
			Interval:   interval,
			OnTerminal: sessionHook(appConfig, repoName, time.Now()),
		}
		res := d.Run(ctx, args[0])
		return exitCode(res.ExitCode(), sessionError(res))
	},
}

// sessionError is the error to surface for a finished watch session. The
// driver already reports an interruption, so it carries none.
func sessionError(res watch.Result) error {
	if res.Status == watch.StatusInterrupted {
		return nil
	}
	return res.Err
}

// resolveInterval picks the poll interval: positional argument, then the
// --interval flag, then config. Explicit values must be positive integers.
func resolveInterval(args []string, flagValue int, flagSet bool) (time.Duration, error) {
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("interval must be a positive integer number of seconds, got %q", args[1])
		}
		return time.Duration(n) * time.Second, nil
	}
	if flagSet {
		if flagValue <= 0 {
			return 0, fmt.Errorf("--interval must be a positive integer, got %d", flagValue)
		}
		return time.Duration(flagValue) * time.Second, nil
	}
	if appConfig != nil {
		return appConfig.Watch.ParsePollInterval(), nil
	}
	return watch.DefaultInterval, nil
}
