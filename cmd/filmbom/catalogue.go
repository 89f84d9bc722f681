package main

import (
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/project"
	"github.com/spf13/cobra"
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Load master data: unit templates, categories, workcenters, densities and products",
}

var catalogueLoadCmd = &cobra.Command{
	Use:   "load [file...]",
	Short: "Load YAML or JSON catalogue files into the database",
	Long: `Loads catalogue files in order. Records are matched by name and updated in
place. Products whose category has a unit template get their own units
generated. Without arguments the default catalogue in the config directory
is loaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{project.DefaultCataloguePath()}
		}
		var c project.Catalogue
		for _, path := range args {
			next, err := project.LoadCatalogue(path)
			if err != nil {
				return err
			}
			c = project.MergeCatalogue(c, next)
		}

		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		rep, err := svc.LoadCatalogue(cmd.Context(), c)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Unit templates: %d\n", rep.Templates)
		fmt.Fprintf(out, "Categories:     %d\n", rep.Categories)
		fmt.Fprintf(out, "Workcenters:    %d\n", rep.Workcenters)
		fmt.Fprintf(out, "Densities:      %d\n", rep.Densities)
		fmt.Fprintf(out, "Products:       %d (units generated for %d)\n", rep.Products, rep.Generated)
		return nil
	},
}

func init() {
	catalogueCmd.AddCommand(catalogueLoadCmd)
}
