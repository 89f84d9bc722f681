package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/mrp"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/store"
	"github.com/spf13/cobra"
)

var productionCmd = &cobra.Command{
	Use:     "production",
	Aliases: []string{"bom"},
	Short:   "Create production BoMs and compute their weights and waste",
}

var prodFlags struct {
	code       string
	product    string
	quantity   float64
	unit       string
	recipe     string
	workcenter string
	width      float64
	speed      float64
	mtn        float64
	waste      float64
}

var productionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a production BoM, importing a recipe when given",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()
		ctx := cmd.Context()

		p, err := st.ProductByName(ctx, prodFlags.product)
		if err != nil {
			return err
		}
		in := mrp.ProductionInput{
			Code:                 prodFlags.code,
			ProductID:            p.ID,
			Quantity:             prodFlags.quantity,
			TotalProductionWidth: prodFlags.width,
			MachineSpeed:         prodFlags.speed,
			MachineTimeNumber:    prodFlags.mtn,
			WastePercentage:      prodFlags.waste,
		}
		if in.UoMID, err = productUnitID(ctx, st, p, prodFlags.unit); err != nil {
			return err
		}
		if prodFlags.recipe != "" {
			r, err := svc.ResolveRecipe(ctx, prodFlags.recipe)
			if err != nil {
				return err
			}
			in.RecipeID = &r.ID
		}
		if prodFlags.workcenter != "" {
			wc, err := st.WorkcenterByName(ctx, prodFlags.workcenter)
			if err != nil {
				return err
			}
			in.WorkcenterID = &wc.ID
		}

		b, err := svc.CreateProduction(ctx, in)
		if err != nil {
			return err
		}
		if b, err = st.BoM(ctx, b.ID); err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

// productUnitID resolves a unit code or name among the units of p. An
// empty ref keeps the product unit.
func productUnitID(ctx context.Context, st *store.Store, p *model.Product, ref string) (*string, error) {
	if ref == "" {
		return nil, nil
	}
	units, err := st.Units(ctx)
	if err != nil {
		return nil, err
	}
	if p.UoM != nil {
		for _, u := range units.Units(p.UoM.CategoryID) {
			if u.Code == ref || u.Name == ref {
				return &u.ID, nil
			}
		}
	}
	return nil, fmt.Errorf("%s is not a unit of product %s", ref, p.Name)
}

var productionShowCmd = &cobra.Command{
	Use:   "show <bom-id>",
	Short: "Show a production BoM with its components and activities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		b, err := st.BoM(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := printBoM(out, b, prec()); err != nil {
			return err
		}
		acts, err := st.Activities(cmd.Context(), b.ID)
		if err != nil {
			return err
		}
		if len(acts) > 0 {
			fmt.Fprintln(out)
			for _, a := range acts {
				fmt.Fprintf(out, "%s  %s: %s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Summary, a.Note)
			}
		}
		return nil
	},
}

var updFlags struct {
	quantity   float64
	workcenter string
	width      float64
	speed      float64
	mtn        float64
	waste      float64
}

var productionUpdateCmd = &cobra.Command{
	Use:   "update <bom-id>",
	Short: "Change the quantity or machine settings of a production BoM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		var up mrp.ProductionUpdate
		flags := cmd.Flags()
		set := func(name string, v float64) *float64 {
			if !flags.Changed(name) {
				return nil
			}
			return &v
		}
		up.Quantity = set("qty", updFlags.quantity)
		up.TotalProductionWidth = set("width", updFlags.width)
		up.MachineSpeed = set("speed", updFlags.speed)
		up.MachineTimeNumber = set("machine-time", updFlags.mtn)
		up.WastePercentage = set("waste", updFlags.waste)
		if updFlags.workcenter != "" {
			wc, err := st.WorkcenterByName(cmd.Context(), updFlags.workcenter)
			if err != nil {
				return err
			}
			up.WorkcenterID = &wc.ID
		}

		b, err := svc.UpdateProduction(cmd.Context(), args[0], up)
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

var byproductName string

var productionImportRecipeCmd = &cobra.Command{
	Use:   "import-recipe <bom-id> <recipe>",
	Short: "Replace the recipe of a production BoM",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()
		ctx := cmd.Context()

		r, err := svc.ResolveRecipe(ctx, args[1])
		if err != nil {
			return err
		}
		bp, err := byproduct(ctx, st)
		if err != nil {
			return err
		}
		b, err := svc.ImportRecipe(ctx, args[0], &r.ID, bp)
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

func byproduct(ctx context.Context, st *store.Store) (*mrp.ByproductInput, error) {
	if byproductName == "" {
		return nil, nil
	}
	p, err := st.ProductByName(ctx, byproductName)
	if err != nil {
		return nil, err
	}
	return &mrp.ByproductInput{ProductID: p.ID}, nil
}

var productionClearRecipeCmd = &cobra.Command{
	Use:   "clear-recipe <bom-id>",
	Short: "Unlink the recipe of a production BoM and drop its components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		b, err := svc.ClearRecipe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

var recomputeAll bool

var productionRecomputeCmd = &cobra.Command{
	Use:   "recompute <bom-id>",
	Short: "Regenerate the recipe components of a production BoM",
	Long: `Drops the components generated from the recipe and computes them again from
the current recipe. With --all every derived field is recomputed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		var b *model.BoM
		if recomputeAll {
			b, err = svc.Recompute(cmd.Context(), args[0])
		} else {
			b, err = svc.RecomputeRecipeQuantities(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

var productionWasteCmd = &cobra.Command{
	Use:   "waste <bom-id>",
	Short: "Show the waste breakdown of a production BoM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		w, err := svc.Waste(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p := prec()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(tw, "Startup waste\t%s kg\t\n", p.Format(precision.Triple, w.Startup))
		fmt.Fprintf(tw, "Product startup waste\t%s kg\t\n", p.Format(precision.Triple, w.ProductStartup))
		fmt.Fprintf(tw, "Percentage waste\t%s kg\t\n", p.Format(precision.Triple, w.Percentage))
		fmt.Fprintf(tw, "Waste\t%s kg\t\n", p.Format(precision.Triple, w.Qty))
		fmt.Fprintf(tw, "Border waste\t%s kg\t\n", p.Format(precision.Triple, w.Border))
		fmt.Fprintf(tw, "Total\t%s kg\t\n", p.Format(precision.Triple, w.Total()))
		return tw.Flush()
	},
}

var wasteOff bool

var productionWasteManagementCmd = &cobra.Command{
	Use:   "waste-management <bom-id>",
	Short: "Record the waste of a production BoM on a by-product",
	Example: `  filmbom production waste-management 0f1c... --byproduct Scrap
  filmbom production waste-management 0f1c... --off`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		bp, err := byproduct(cmd.Context(), st)
		if err != nil {
			return err
		}
		b, err := svc.SetWasteManagement(cmd.Context(), args[0], !wasteOff, bp)
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

var filmFlags struct {
	stretching float64
	border     float64
	grammage   float64
	treat      string
}

var productionAddFilmCmd = &cobra.Command{
	Use:   "add-film <bom-id> <product>",
	Short: "Add a film component",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		p, err := st.ProductByName(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		req := mrp.FilmRequest{ProductID: p.ID, StretchingFactor: filmFlags.stretching}
		if cmd.Flags().Changed("border") {
			req.ManualBorderFactor = &filmFlags.border
		}
		l, err := svc.AddFilm(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added film %s: %s %s\n", p.Name,
			prec().Format(precision.ProductUoM, l.Quantity), unitLabel(l.UoM))
		return nil
	},
}

var productionAddTreatmentCmd = &cobra.Command{
	Use:   "add-treatment <bom-id> <product>",
	Short: "Add a glue or coating component",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		p, err := st.ProductByName(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		req := mrp.TreatmentRequest{ProductID: p.ID, Grammage: filmFlags.grammage}
		if filmFlags.treat != "" {
			req.FilmToCoatID = &filmFlags.treat
		}
		l, err := svc.AddTreatment(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s\n", p.Name,
			prec().Format(precision.ProductUoM, l.Quantity), unitLabel(l.UoM))
		return nil
	},
}

func unitLabel(u *model.UoM) string {
	if u == nil {
		return ""
	}
	return u.Name
}

var productionRemoveCmd = &cobra.Command{
	Use:   "remove-component <bom-id> <line-id>",
	Short: "Remove a film, glue or coating component",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		b, err := svc.RemoveComponent(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printBoM(cmd.OutOrStdout(), b, prec())
	},
}

var productionDeleteCmd = &cobra.Command{
	Use:   "delete <bom-id>...",
	Short: "Delete production BoMs. Recipes are refused and must be archived",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := svc.DeleteBoMs(cmd.Context(), args...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d BoM(s)\n", len(args))
		return nil
	},
}

func init() {
	f := productionCreateCmd.Flags()
	f.StringVar(&prodFlags.code, "code", "", "BoM reference code")
	f.StringVar(&prodFlags.product, "product", "", "Product name or code")
	f.Float64Var(&prodFlags.quantity, "qty", 1, "Quantity to produce")
	f.StringVar(&prodFlags.unit, "unit", "", "Unit of the quantity, defaults to the product unit")
	f.StringVar(&prodFlags.recipe, "recipe", "", "Recipe number to import")
	f.StringVar(&prodFlags.workcenter, "workcenter", "", "Workcenter name, defaults to the recipe workcenter")
	f.Float64Var(&prodFlags.width, "width", 0, "Total production width (mm)")
	f.Float64Var(&prodFlags.speed, "speed", 0, "Machine speed (m/min)")
	f.Float64Var(&prodFlags.mtn, "machine-time", 0, "Number of machine startups")
	f.Float64Var(&prodFlags.waste, "waste", 0, "Waste percentage")
	_ = productionCreateCmd.MarkFlagRequired("product")

	f = productionUpdateCmd.Flags()
	f.Float64Var(&updFlags.quantity, "qty", 0, "Quantity to produce")
	f.StringVar(&updFlags.workcenter, "workcenter", "", "Workcenter name")
	f.Float64Var(&updFlags.width, "width", 0, "Total production width (mm)")
	f.Float64Var(&updFlags.speed, "speed", 0, "Machine speed (m/min)")
	f.Float64Var(&updFlags.mtn, "machine-time", 0, "Number of machine startups")
	f.Float64Var(&updFlags.waste, "waste", 0, "Waste percentage")

	productionImportRecipeCmd.Flags().StringVar(&byproductName, "byproduct", "", "By-product receiving the waste")
	productionWasteManagementCmd.Flags().StringVar(&byproductName, "byproduct", "", "By-product receiving the waste")
	productionWasteManagementCmd.Flags().BoolVar(&wasteOff, "off", false, "Disable waste management")
	productionRecomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "Recompute every derived field")

	productionAddFilmCmd.Flags().Float64Var(&filmFlags.stretching, "stretching", 0, "Stretching factor (%)")
	productionAddFilmCmd.Flags().Float64Var(&filmFlags.border, "border", 0, "Manual border factor (%)")
	productionAddTreatmentCmd.Flags().Float64Var(&filmFlags.grammage, "grammage", 0, "Grammage (g/m2)")
	productionAddTreatmentCmd.Flags().StringVar(&filmFlags.treat, "film", "", "Line id of the film to coat")

	productionCmd.AddCommand(productionCreateCmd, productionShowCmd, productionUpdateCmd,
		productionImportRecipeCmd, productionClearRecipeCmd, productionRecomputeCmd,
		productionWasteCmd, productionWasteManagementCmd, productionAddFilmCmd,
		productionAddTreatmentCmd, productionRemoveCmd, productionDeleteCmd)
}
