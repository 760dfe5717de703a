package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/alanmeadows/shipit/internal/config"
	"github.com/alanmeadows/shipit/internal/history"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of sessions to show (0 for all)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent watch sessions",
	Long: `Display recorded watch sessions in a table, newest first.

Sessions are stored as markdown files under history.dir.`,
	Example: `  shipit history
  shipit history -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := history.New(config.ExpandHome(appConfig.History.Dir))
		records, err := h.List(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("listing history: %w", err)
		}
		renderHistory(cmd.OutOrStdout(), records)
		return nil
	},
}

func renderHistory(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions recorded yet. Run: shipit watch <branch-or-pr>")
		return
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.FinishedAt.Local().Format("2006-01-02 15:04"),
			r.PR,
			r.Repo,
			r.Status,
			r.Decision,
			fmt.Sprintf("%d", r.Iterations),
			r.Duration().Round(time.Second).String(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FINISHED", "PR", "REPO", "STATUS", "DECISION", "POLLS", "DURATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, t)
}
