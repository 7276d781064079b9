package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"anistrm/internal/history"
	"anistrm/internal/ipc"
	"anistrm/internal/logging"
	"anistrm/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var full bool
	var local bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a sync now (through the daemon when it is running)",
		Long: "Run a sync now. Incremental syncs read the RSS feed; --full scans the\n" +
			"current and previous season listing. The request goes to the daemon when\n" +
			"it is reachable and runs in-process otherwise.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			var resp *ipc.SyncResponse
			if !local {
				client, err := ctx.dialClient()
				if err == nil {
					defer client.Close()
					resp, err = client.Sync(full)
					if err != nil {
						return err
					}
				} else if !asJSON {
					fmt.Fprintln(stdout, "Daemon not reachable; running sync locally")
				}
			}
			if resp == nil {
				summary, err := runLocalSync(cmd, ctx, full)
				if err != nil && summary.RunID == "" {
					return err
				}
				r := ipc.FromSummary(summary)
				resp = &r
			}

			if asJSON {
				return emitJSON(stdout, resp)
			}
			printSyncSummary(stdout, resp)
			if resp.Error != "" {
				return fmt.Errorf("sync failed: %s", resp.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Scan the current and previous season listing instead of the RSS feed")
	cmd.Flags().BoolVar(&local, "local", false, "Run in-process even when the daemon is running")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON")
	return cmd
}

func runLocalSync(cmd *cobra.Command, ctx *commandContext, full bool) (syncer.Summary, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return syncer.Summary{}, err
	}
	logger, err := logging.ForCLI(cfg)
	if err != nil {
		return syncer.Summary{}, err
	}

	var recorder syncer.Recorder
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable; run is not recorded", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		)
	} else {
		defer store.Close()
		recorder = store
	}

	s, err := syncer.New(cfg, recorder, logger)
	if err != nil {
		return syncer.Summary{}, err
	}
	return s.Run(cmd.Context(), syncer.Request{Mode: syncer.ModeFor(full), Trigger: syncer.TriggerManual})
}

func printSyncSummary(out io.Writer, resp *ipc.SyncResponse) {
	duration := time.Duration(resp.DurationMS) * time.Millisecond
	fmt.Fprintf(out, "Run %s (%s) finished in %s\n", shortID(resp.RunID), resp.Mode, duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Fetched %d, created %d, existing %d, skipped %d, failed %d\n",
		resp.Fetched, resp.Created, resp.Existing, resp.Skipped, resp.Failed)
	for _, title := range resp.CreatedTitles {
		fmt.Fprintf(out, "  + %s\n", title)
	}
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
