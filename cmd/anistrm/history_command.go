package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"anistrm/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var files bool
	var runID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs or created files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stdout := cmd.OutOrStdout()
			if files || runID != "" {
				list, err := store.ListFiles(cmd.Context(), runID, limit)
				if err != nil {
					return err
				}
				if asJSON {
					if list == nil {
						list = []*history.File{}
					}
					return emitJSON(stdout, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(stdout, "No files recorded")
					return nil
				}
				fmt.Fprint(stdout, renderTable(fileColumns, fileRows(list)))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []*history.Run{}
				}
				return emitJSON(stdout, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(stdout, "No runs recorded")
				return nil
			}
			fmt.Fprint(stdout, renderTable(runColumns, runRows(runs)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	cmd.Flags().BoolVar(&files, "files", false, "List created files instead of runs")
	cmd.Flags().StringVar(&runID, "run", "", "List files created by one run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func runRows(runs []*history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			formatTimestamp(run.StartedAt),
			run.Mode,
			run.Trigger,
			string(run.Status),
			strconv.Itoa(run.Fetched),
			strconv.Itoa(run.Created),
			strconv.Itoa(run.Existing),
			strconv.Itoa(run.Failed),
			duration,
		})
	}
	return rows
}

func fileRows(files []*history.File) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{formatTimestamp(f.CreatedAt), shortID(f.RunID), f.Title})
	}
	return rows
}
