package main

import (
	"github.com/spf13/cobra"
)

// Help groups for the command list.
var commandGroups = []struct {
	group    cobra.Group
	commands []func(*commandContext) *cobra.Command
}{
	{
		group:    cobra.Group{ID: "sync", Title: "Syncing:"},
		commands: []func(*commandContext) *cobra.Command{newSyncCommand, newSeasonsCommand},
	},
	{
		group:    cobra.Group{ID: "inspect", Title: "Inspecting:"},
		commands: []func(*commandContext) *cobra.Command{newStatusCommand, newHistoryCommand, newLogsCommand, newTestNotifyCommand},
	},
	{
		group:    cobra.Group{ID: "daemon", Title: "Daemon:"},
		commands: []func(*commandContext) *cobra.Command{newDaemonRunCommand, newStartCommand, newStopCommand, newRestartCommand},
	},
	{
		group:    cobra.Group{ID: "setup", Title: "Setup:"},
		commands: []func(*commandContext) *cobra.Command{newConfigCommand},
	},
}

func newRootCommand() *cobra.Command {
	var socketFlag string
	var configFlag string

	ctx := newCommandContext(&socketFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "anistrm",
		Short:         "Keep a directory of .strm pointer files in sync with the ANi catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Path to the anistrm daemon socket")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	for _, g := range commandGroups {
		group := g.group
		rootCmd.AddGroup(&group)
		for _, build := range g.commands {
			cmd := build(ctx)
			cmd.GroupID = group.ID
			rootCmd.AddCommand(cmd)
		}
	}
	return rootCmd
}
