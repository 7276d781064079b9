package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"anistrm/internal/catalog"
	"anistrm/internal/retry"
	"anistrm/internal/season"
)

func newSeasonsCommand(ctx *commandContext) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "seasons",
		Short: "Print the seasons a full sync scans and their listing URLs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse("2006-01-02", at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				now = parsed
			}

			source := catalog.NewListingSource(cfg, nil, retry.DefaultPolicy(), nil)
			rows := [][]string{}
			for i, sn := range season.Window(now) {
				label := "current"
				if i > 0 {
					label = "previous"
				}
				rows = append(rows, []string{label, sn.String(), source.SeasonURL(sn)})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(seasonColumns, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Evaluate the window on this date (YYYY-MM-DD)")
	return cmd
}
