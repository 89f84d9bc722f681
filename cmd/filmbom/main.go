// FilmBoM - recipe and production BoM calculator for extruded film.
//
// Recipes describe the resin blend of each extruder layer; production BoMs
// import a recipe and derive raw material weights, waste and film
// components from the product and machine settings.
//
// Build:
//   go build -o filmbom ./cmd/filmbom
//
// Quick start:
//   filmbom migrate
//   filmbom catalogue load catalogue.yaml
//   filmbom recipe create --extruder A=60 --extruder B=40
//   filmbom recipe import-lines RCP/00001 lines.xlsx --replace

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/piwi3910/FilmBoM/internal/engine"
	"github.com/piwi3910/FilmBoM/internal/logger"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/mrp"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/project"
	"github.com/piwi3910/FilmBoM/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dsn        string

	cfg model.AppConfig
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "filmbom",
	Short: "FilmBoM - recipe and production BoM calculator for extruded film",
	Long: `FilmBoM keeps extrusion recipes and the production BoMs importing them.

Every command runs as a single transaction: a rejected change leaves the
database untouched. Recipe changes are pushed to every production BoM using
the recipe, each receiving an activity describing the change.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = project.LoadAppConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
		if dsn != "" {
			cfg.DatabaseDSN = dsn
		}
		cfg.DatabaseDSN = project.ResolveDSN(cfg, filepath.Dir(configPath))

		if verbose {
			log, err = logger.NewVerbose(cfg.LogMode)
		} else {
			log, err = logger.New(cfg.LogMode)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", project.DefaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "Database DSN, overrides the config file")

	rootCmd.AddCommand(migrateCmd, configCmd, catalogueCmd, recipeCmd, productionCmd, exportCmd, backupCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed the unit catalogue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Seed(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database ready (%s)\n", cfg.DatabaseDriver)
		return nil
	},
}

// openStore connects to the configured database and migrates the schema.
func openStore() (*store.Store, error) {
	db, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	st := store.New(db, log)
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// openService opens the store and wraps it in a service. The returned
// function closes the database.
func openService() (*mrp.Service, *store.Store, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	closer := func() {
		if err := st.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
	return mrp.New(st, cfg, log), st, closer, nil
}

func prec() precision.Config {
	return precision.New(cfg.Precision)
}

// exitCode returns 2 for errors the user can correct and 3 for missing
// records.
func exitCode(err error) int {
	var deletion *mrp.RecipeDeletionError
	switch {
	case engine.IsValidation(err), engine.IsConversion(err), errors.As(err, &deletion):
		return 2
	case errors.Is(err, store.ErrNotFound):
		return 3
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}
