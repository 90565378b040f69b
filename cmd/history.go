package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-workflow-composer/internal/errors"
	"github.com/deploymenttheory/go-workflow-composer/internal/record"
	"github.com/deploymenttheory/go-workflow-composer/internal/ui"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List submitted workflows, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.Record.HistoryDB
			if path == "" {
				return fmt.Errorf("%w: submission history is disabled (record.history_db is empty)", errors.ErrInvalidArgument)
			}

			store, err := record.OpenHistory(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := ui.NewPrinter(cmd.OutOrStdout())
			if len(entries) == 0 {
				out.Line("No submissions recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("RECORDED", "WORKFLOW ID", "TITLE", "CREATED AT")
			for _, e := range entries {
				t.Row(e.RecordedAt.Local().Format(time.DateTime), e.Record.WorkflowID, e.Record.Title, e.Record.CreatedAt)
			}
			out.Line("%s", t.Render())
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show; 0 shows all")

	return historyCmd
}
