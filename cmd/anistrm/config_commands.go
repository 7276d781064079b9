package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"anistrm/internal/config"
	"anistrm/internal/fileutil"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the anistrm configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			err = config.CreateSample(target, overwrite)
			if errors.Is(err, fileutil.ErrExists) {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			}
			if err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.strm_dir to your media library folder, then run `anistrm config validate`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func configTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and show where anistrm will read and write",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			source := path
			if !exists {
				source += " (not found; defaults used)"
			}
			printer := newStatusPrinter(cmd.OutOrStdout())
			printer.section("Configuration", settingLines(cfg, source)...)
			fmt.Fprintln(cmd.OutOrStdout(), "\nConfiguration valid")
			return nil
		},
	}
}

func settingLines(cfg *config.Config, source string) []statusLine {
	enabled := func(on bool, detail string) (health, string) {
		if on {
			return healthGood, detail
		}
		return healthNeutral, "disabled"
	}
	jfHealth, jfDetail := enabled(cfg.Jellyfin.Enabled, cfg.Jellyfin.URL)
	ntfyHealth, ntfyDetail := enabled(cfg.Notifications.NtfyTopic != "", "topic configured")
	tz := cfg.Schedule.Timezone
	if tz == "" {
		tz = "local time"
	}
	schedHealth, schedDetail := enabled(cfg.Schedule.Enabled, fmt.Sprintf("%q in %s", cfg.Schedule.Cron, tz))

	return []statusLine{
		{"Config file", healthNeutral, source},
		{"Strm directory", healthNeutral, cfg.Paths.StrmDir},
		{"History", healthNeutral, cfg.HistoryPath()},
		{"Schedule", schedHealth, schedDetail},
		{"Jellyfin", jfHealth, jfDetail},
		{"ntfy", ntfyHealth, ntfyDetail},
	}
}
