package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/project"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists, use --force to overwrite it", configPath)
		}
		if err := project.SaveAppConfig(configPath, model.DefaultAppConfig()); err != nil {
			return fmt.Errorf("failed to write %s: %w", configPath, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
}

// rememberExport records path in the recent exports of the config file.
func rememberExport(path string) {
	cfg.AddRecentExport(path)
	stored, err := project.LoadAppConfig(configPath)
	if err != nil {
		log.Warn("failed to read config", "path", configPath, "error", err)
		return
	}
	stored.AddRecentExport(path)
	if err := project.SaveAppConfig(configPath, stored); err != nil {
		log.Warn("failed to record recent export", "path", configPath, "error", err)
	}
}
