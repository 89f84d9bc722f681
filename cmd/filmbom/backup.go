package main

import (
	"fmt"
	"strings"

	"github.com/piwi3910/FilmBoM/internal/project"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up and restore recipes with the application config",
}

var backupArchived bool

var backupExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the config and every recipe to a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		recipes, err := svc.BackupRecipes(cmd.Context(), backupArchived)
		if err != nil {
			return err
		}
		if err := project.ExportAllData(args[0], cfg, recipes); err != nil {
			return err
		}
		log.Info("backup written", "path", args[0], "recipes", len(recipes))
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d recipe(s) to %s\n", len(recipes), args[0])
		return nil
	},
}

var backupRestoreConfig bool

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore the recipes of a backup",
	Long: `Restores every recipe of the backup whose number does not exist yet. Existing
recipes are left untouched. With --config the backed up config replaces the
current config file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := project.ImportAllData(args[0])
		if err != nil {
			return err
		}

		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		report, err := svc.RestoreRecipes(cmd.Context(), data.Recipes)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Restored %d recipe(s)\n", len(report.Restored))
		if len(report.Skipped) > 0 {
			fmt.Fprintf(out, "Skipped existing: %s\n", strings.Join(report.Skipped, ", "))
		}

		if backupRestoreConfig {
			if err := project.SaveAppConfig(configPath, data.Config); err != nil {
				return err
			}
			fmt.Fprintf(out, "Config restored to %s\n", configPath)
		}
		return nil
	},
}

func init() {
	backupExportCmd.Flags().BoolVar(&backupArchived, "archived", false, "Include archived recipes")
	backupImportCmd.Flags().BoolVar(&backupRestoreConfig, "config", false, "Also restore the config file")
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
}
