package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alanmeadows/shipit/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage shipit configuration",
	Long:  `Show and modify shipit configuration values.`,
}

var configJSONFlag bool

func init() {
	configShowCmd.Flags().BoolVar(&configJSONFlag, "json", false, "Output raw JSON without formatting")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		redacted := redactConfig(appConfig)

		var data []byte
		var err error
		if configJSONFlag {
			data, err = json.Marshal(redacted)
		} else {
			data, err = json.MarshalIndent(redacted, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// redactConfig returns a copy of the config with secret fields masked.
func redactConfig(cfg *config.Config) *config.Config {
	c := *cfg
	if c.GitHub.Token != "" {
		c.GitHub.Token = "***"
	}
	if c.Notifications.TeamsWebhookURL != "" {
		c.Notifications.TeamsWebhookURL = "***"
	}
	return &c
}

// parseValue interprets a command-line value as bool, integer, float or
// string, in that order.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value using a dotted key path.

The value is written to .shipit/shipit.jsonc in the repository root.
The file is created if it does not exist.

Note: JSONC comments are not preserved on write.`,
	Example: `  shipit config set workflow.review_mode pr
  shipit config set workflow.auto_push false
  shipit config set watch.poll_interval 45s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := parseValue(args[1])

		root := config.RepoRoot()
		if root == "" {
			return usageError(errors.New("not in a git repository"))
		}

		path := config.RepoConfigPath(root)
		if err := config.Set(path, key, value); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
		return nil
	},
}
