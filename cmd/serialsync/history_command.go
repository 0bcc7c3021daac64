package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"serialsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [index-url]",
		Short: "Show recorded sync runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "No sync runs recorded")

				return nil
			}

			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			var indexURL string
			if len(args) == 1 {
				indexURL = args[0]
			}

			runs, err := store.List(cmd.Context(), indexURL, limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No sync runs recorded")

				return nil
			}

			fmt.Fprintln(out, renderRuns(runs))

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	return cmd
}

func renderRuns(runs []history.Run) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Finished", "Title", "Status", "Planned", "New", "Present", "Failed", "Archive"})

	for _, run := range runs {
		status := run.Status
		if run.Reason != "" {
			status += ": " + run.Reason
		}

		tw.AppendRow(table.Row{
			run.FinishedAt.Local().Format("2006-01-02 15:04"),
			run.Title,
			status,
			strconv.Itoa(run.Planned),
			strconv.Itoa(run.Downloaded),
			strconv.Itoa(run.Existing),
			strconv.Itoa(run.Failed),
			run.Archive,
		})
	}

	columnConfigs := make([]table.ColumnConfig, 0, 4)
	for i := 4; i <= 7; i++ {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}

	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
