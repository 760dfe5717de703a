package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/shipit/internal/config"
	"github.com/alanmeadows/shipit/internal/logging"
)

var (
	verbose    bool
	configPath string
	appConfig  *config.Config

	rootCmd = &cobra.Command{
		Use:   "shipit",
		Short: "Commit, open a pull request, and wait for review to resolve",
		Long: `shipit drives a change from commit to merge. It stages and commits files,
optionally opens a pull request, then polls the pull request until it is
merged or a reviewer asks for changes.

Exit codes: 0 merged or committed, 1 changes needed or commit declined,
2 errors and interruptions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an additional JSONC config file")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose)
		cfg, err := config.Load(configPath)
		if err != nil {
			return usageError(fmt.Errorf("loading config: %w", err))
		}
		appConfig = cfg
		return nil
	}

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(shipCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. Errors carrying an exit code are returned
// as *ExitError.
func Execute() error {
	return rootCmd.Execute()
}
