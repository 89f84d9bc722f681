package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/FilmBoM/internal/export"
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/piwi3910/FilmBoM/internal/precision"
	"github.com/piwi3910/FilmBoM/internal/store"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export BoMs to PDF, Excel, labels or a DXF slitting layout",
	Long: `Exports the given BoMs, or every active BoM when no id is given. Recipes
can be referenced by number.`,
}

// exportSet runs write over the resolved BoMs and records path as a
// recent export.
func exportSet(write func(string, []model.BoM, map[string]string, precision.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		ids, err := bomIDs(cmd.Context(), st, args[1:])
		if err != nil {
			return err
		}
		boms, numbers, err := svc.ExportSet(cmd.Context(), ids...)
		if err != nil {
			return err
		}
		path := args[0]
		if err := write(path, boms, numbers, prec()); err != nil {
			return err
		}
		log.Info("exported", "path", path, "boms", len(boms))
		rememberExport(path)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d BoM(s) to %s\n", len(boms), path)
		return nil
	}
}

// bomIDs maps recipe numbers to their ids and passes other references
// through as BoM ids.
func bomIDs(ctx context.Context, st *store.Store, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		r, err := st.RecipeByNumber(ctx, ref)
		switch {
		case err == nil:
			ids = append(ids, r.ID)
		case errors.Is(err, store.ErrNotFound):
			ids = append(ids, ref)
		default:
			return nil, err
		}
	}
	return ids, nil
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf <file> [bom-id...]",
	Short: "Production sheets with the slitting layout and a summary page",
	Args:  cobra.MinimumNArgs(1),
	RunE:  exportSet(export.ExportPDF),
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx <file> [bom-id...]",
	Short: "Excel workbook of BoMs, components and by-products",
	Args:  cobra.MinimumNArgs(1),
	RunE:  exportSet(export.ExportXLSX),
}

var exportLabelsCmd = &cobra.Command{
	Use:   "labels <file> [bom-id...]",
	Short: "QR-coded production labels",
	Args:  cobra.MinimumNArgs(1),
	RunE:  exportSet(export.ExportLabels),
}

var dxfLength float64

var exportDXFCmd = &cobra.Command{
	Use:   "dxf <file> <bom-id>",
	Short: "Slitting layout of a production BoM for CAD",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, closeDB, err := openService()
		if err != nil {
			return err
		}
		defer closeDB()

		b, err := st.BoM(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		if err := export.ExportDXF(args[0], b, dxfLength); err != nil {
			return err
		}
		rememberExport(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "Exported slitting layout of %s to %s\n", b.DisplayName(), args[0])
		return nil
	},
}

func init() {
	exportDXFCmd.Flags().Float64Var(&dxfLength, "length", 1000, "Length of web to draw (mm)")
	exportCmd.AddCommand(exportPDFCmd, exportXLSXCmd, exportLabelsCmd, exportDXFCmd)
}
