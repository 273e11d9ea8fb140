package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ZIP index to csv, xlsx, or geojson",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		switch exportFormat {
		case "csv":
			err = exportCSV(env.index, exportOut)
		case "xlsx":
			err = exportXLSX(env.index, exportOut)
		case "geojson":
			err = exportGeoJSON(env.index, exportOut)
		default:
			return eris.Errorf("export: unknown format %q", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Printf("exported %d ZIP codes to %s\n", env.index.Len(), exportOut)
		return nil
	},
}

// summaryRows flattens the index into one row per ZIP code.
func summaryRows(ix *zipindex.Index) [][]string {
	rows := [][]string{{"zip", "centroid_lat", "centroid_lon", "square_miles", "area_source"}}
	for _, code := range ix.AllCodes() {
		rec := ix.Info(code)

		area := zipindex.FallbackAreaSqMi
		areaSource := "default"
		if est, ok := ix.AreaEstimate(code); ok {
			area = est
			areaSource = "boundary"
		}

		rows = append(rows, []string{
			rec.Code,
			strconv.FormatFloat(rec.Centroid.Lat, 'f', 6, 64),
			strconv.FormatFloat(rec.Centroid.Lon, 'f', 6, 64),
			strconv.FormatFloat(area, 'f', 2, 64),
			areaSource,
		})
	}
	return rows
}

func exportCSV(ix *zipindex.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.WriteAll(summaryRows(ix)); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	return nil
}

func exportXLSX(ix *zipindex.Index, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("ZIP Codes")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	for _, rowData := range summaryRows(ix) {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

func exportGeoJSON(ix *zipindex.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create geojson")
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewEncoder(f).Encode(ix.BoundaryCollection()); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv, xlsx, or geojson")
	exportCmd.Flags().StringVar(&exportOut, "out", "zip-codes.csv", "output file path")
	rootCmd.AddCommand(exportCmd)
}
