package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/piwi3910/FilmBoM/internal/importer"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/mrp"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/spf13/cobra"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Create, edit and archive recipes",
	Long: `Recipes are referenced by number (RCP/00001) or id. Component changes are
validated as a whole and pushed to every production BoM importing the recipe.`,
}

var recipeArchived bool

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes with the number of production BoMs using them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		recipes, err := st.Recipes(cmd.Context(), recipeArchived)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RECIPE\tEXTRUDERS\tCOMPONENTS\tBOMS\tACTIVE")
		for i := range recipes {
			r := &recipes[i]
			n, err := svc.ProductionBoMCount(cmd.Context(), r.ID)
			if err != nil {
				return err
			}
			extruders := make([]string, 0, len(r.Extruders))
			for _, ex := range r.Extruders {
				extruders = append(extruders, ex.DisplayName())
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\n", r.DisplayName(), strings.Join(extruders, " "), len(r.Lines), n, r.Active)
		}
		return tw.Flush()
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <recipe>",
	Short: "Show the extruders and components of a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		r, err := svc.ResolveRecipe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), r, prec())
	},
}

var (
	recipeCode       string
	recipeWorkcenter string
	recipeExtruders  []string
)

var recipeCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a numbered recipe",
	Example: `  filmbom recipe create --workcenter "Extruder 1" --extruder A=60 --extruder B=40`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		extruders, err := parseExtruders(recipeExtruders)
		if err != nil {
			return err
		}
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		in := mrp.RecipeInput{Code: recipeCode, Extruders: extruders}
		if recipeWorkcenter != "" {
			wc, err := st.WorkcenterByName(cmd.Context(), recipeWorkcenter)
			if err != nil {
				return err
			}
			in.WorkcenterID = &wc.ID
		}
		r, err := svc.CreateRecipe(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created recipe %s\n", r.DisplayName())
		return nil
	},
}

var recipeSetExtrudersCmd = &cobra.Command{
	Use:   "set-extruders <recipe>",
	Short: "Replace the extruder concentrations of a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extruders, err := parseExtruders(recipeExtruders)
		if err != nil {
			return err
		}
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		r, err := svc.ResolveRecipe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if r, err = svc.SetExtruders(cmd.Context(), r.ID, extruders); err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), r, prec())
	},
}

var importReplace bool

var recipeImportLinesCmd = &cobra.Command{
	Use:   "import-lines <recipe> <file>",
	Short: "Add components from a CSV or Excel file",
	Long: `Reads components from a CSV or Excel file with the columns Product, Extruder,
Layer concentration and, optionally, Unit and Alternative. The whole file is
applied as one change: if any layer does not total 100% nothing is written.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := importer.ImportFile(args[1])
		for _, w := range res.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}

		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		r, err := svc.ResolveRecipe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if r, err = svc.ImportRecipeLines(cmd.Context(), r.ID, res, importReplace); err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), r, prec())
	},
}

var recipeValidateCmd = &cobra.Command{
	Use:   "validate <recipe>",
	Short: "Check the extruder and layer concentrations of a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		r, err := svc.ResolveRecipe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.ValidateRecipe(cmd.Context(), r.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recipe %s is valid\n", r.DisplayName())
		return nil
	},
}

func recipeIDs(cmd *cobra.Command, svc *mrp.Service, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		r, err := svc.ResolveRecipe(cmd.Context(), ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}

var recipeArchiveCmd = &cobra.Command{
	Use:   "archive <recipe>...",
	Short: "Archive recipes. Recipes are never deleted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		ids, err := recipeIDs(cmd, svc, args)
		if err != nil {
			return err
		}
		if err := svc.ArchiveBoMs(cmd.Context(), ids...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Archived %d recipe(s)\n", len(ids))
		return nil
	},
}

var recipeRestoreCmd = &cobra.Command{
	Use:   "unarchive <recipe>...",
	Short: "Reactivate archived recipes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		ids, err := recipeIDs(cmd, svc, args)
		if err != nil {
			return err
		}
		if err := svc.RestoreBoMs(cmd.Context(), ids...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d recipe(s)\n", len(ids))
		return nil
	},
}

func init() {
	recipeListCmd.Flags().BoolVar(&recipeArchived, "archived", false, "Include archived recipes")

	recipeCreateCmd.Flags().StringVar(&recipeCode, "code", "", "Recipe reference code")
	recipeCreateCmd.Flags().StringVar(&recipeWorkcenter, "workcenter", "", "Workcenter name")
	recipeCreateCmd.Flags().StringArrayVar(&recipeExtruders, "extruder", nil, "Extruder as NAME=PERCENT, repeatable")
	recipeSetExtrudersCmd.Flags().StringArrayVar(&recipeExtruders, "extruder", nil, "Extruder as NAME=PERCENT, repeatable")
	_ = recipeSetExtrudersCmd.MarkFlagRequired("extruder")

	recipeImportLinesCmd.Flags().BoolVar(&importReplace, "replace", false, "Remove the current components first")

	recipeCmd.AddCommand(recipeListCmd, recipeShowCmd, recipeCreateCmd, recipeSetExtrudersCmd,
		recipeImportLinesCmd, recipeValidateCmd, recipeArchiveCmd, recipeRestoreCmd)
}

// parseExtruders reads NAME=PERCENT pairs.
func parseExtruders(pairs []string) ([]mrp.ExtruderInput, error) {
	out := make([]mrp.ExtruderInput, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid extruder %q, expected NAME=PERCENT", pair)
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid concentration in extruder %q: %w", pair, err)
		}
		out = append(out, mrp.ExtruderInput{Name: name, Concentration: pct})
	}
	return out, nil
}

// printBoM writes the header fields and components of a BoM.
func printBoM(w io.Writer, b *model.BoM, p precision.Config) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BoM:\t%s\n", b.DisplayName())
	fmt.Fprintf(tw, "Id:\t%s\n", b.ID)
	if b.IsRecipe() {
		extruders := make([]string, 0, len(b.Extruders))
		for _, ex := range b.Extruders {
			extruders = append(extruders, ex.DisplayName())
		}
		fmt.Fprintf(tw, "Extruders:\t%s\n", strings.Join(extruders, " "))
	} else {
		unit := ""
		if b.UoM != nil {
			unit = b.UoM.Name
		}
		fmt.Fprintf(tw, "Quantity:\t%s %s\n", p.Format(precision.ProductUoM, b.Quantity), unit)
		fmt.Fprintf(tw, "Density:\t%s g/cm3\n", p.Format(precision.Quadruple, b.Density))
		fmt.Fprintf(tw, "Raw material:\t%s kg\n", p.Format(precision.Triple, b.RawMaterialWeight))
		fmt.Fprintf(tw, "Waste:\t%s kg\n", p.Format(precision.Triple, b.WasteQty+b.BorderWasteQty))
	}
	if b.Workcenter != nil {
		fmt.Fprintf(tw, "Workcenter:\t%s\n", b.Workcenter.Name)
	}
	fmt.Fprintln(tw)

	extruders := make(map[string]string, len(b.Extruders))
	for _, ex := range b.Extruders {
		extruders[ex.ID] = ex.Name
	}
	fmt.Fprintln(tw, "#\tPRODUCT\tEXTRUDER\tLAYER %\tCONC. %\tQUANTITY\tUNIT")
	row := func(l *model.BoMLine, alt bool) {
		name := l.ProductID
		if l.Product != nil {
			name = l.Product.Name
		}
		if alt {
			name += " (alt)"
		}
		extruder, unit := "", ""
		switch {
		case l.Extruder != nil:
			extruder = l.Extruder.Name
		case l.ExtruderID != nil:
			extruder = extruders[*l.ExtruderID]
		}
		if l.UoM != nil {
			unit = l.UoM.Name
		}
		conc := l.Concentration
		if l.IsRecipeDerived() {
			conc = l.RelatedConcentration
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", l.Sequence, name, extruder,
			p.Format(precision.Concentration, l.LayerConcentration), p.Format(precision.Concentration, conc),
			p.Format(precision.ProductUoM, l.Quantity), unit)
	}
	for i := range b.Lines {
		row(&b.Lines[i], false)
	}
	for i := range b.AltLines {
		row(&b.AltLines[i], true)
	}
	return tw.Flush()
}
