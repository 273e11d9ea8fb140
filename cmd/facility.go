package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/know-your-zip/explorer-cli/internal/facility"
	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

var facilityCmd = &cobra.Command{
	Use:   "facility",
	Short: "Public facility lookups from the county open-data portal",
}

var facilityCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List supported facility categories",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, c := range facility.Categories() {
			fmt.Println(c)
		}
	},
}

var (
	facilityRadius     float64
	facilityCategories []string
	facilityZip        string
)

var facilityNearbyCmd = &cobra.Command{
	Use:   "nearby [lat lon]",
	Short: "List facilities near a point or a ZIP centroid",
	Long:  "Search county facility layers around either an explicit coordinate pair or, with --zip, the centroid of a ZIP code.",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if (len(args) == 0) == (facilityZip == "") {
			return eris.New("facility nearby: provide either lat lon arguments or --zip")
		}
		if len(args) == 1 {
			return eris.New("facility nearby: both lat and lon are required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.facilities == nil {
			return eris.New("facility nearby: requires the arcgis source provider")
		}

		var origin zipindex.LatLon
		if facilityZip != "" {
			ok, msg, rec := env.index.Validate(facilityZip)
			if !ok {
				return eris.Errorf("facility nearby: %s: %s", facilityZip, msg)
			}
			origin = rec.Centroid
		} else {
			lat, lon, err := parseLatLon(args[0], args[1])
			if err != nil {
				return err
			}
			origin = zipindex.LatLon{Lat: lat, Lon: lon}
		}

		var categories []facility.Category
		for _, raw := range facilityCategories {
			cat, ok := facility.ParseCategory(raw)
			if !ok {
				return eris.Errorf("facility nearby: unknown category %q", raw)
			}
			categories = append(categories, cat)
		}

		facilities, err := env.facilities.Nearby(ctx, origin, facilityRadius, categories)
		if err != nil {
			return err
		}
		if len(facilities) == 0 {
			fmt.Printf("no facilities within %.1f mi\n", facilityRadius)
			return nil
		}

		for _, f := range facilities {
			line := fmt.Sprintf("%-18s %.2f mi  %s", f.Category, f.DistanceMiles, f.Name)
			if f.Address != "" {
				line += "  (" + f.Address + ")"
			}
			fmt.Println(line)
		}
		fmt.Printf("\n%d facilities within %.1f mi\n", len(facilities), facilityRadius)
		return nil
	},
}

func init() {
	facilityNearbyCmd.Flags().Float64Var(&facilityRadius, "radius", 5, "search radius in miles")
	facilityNearbyCmd.Flags().StringSliceVar(&facilityCategories, "category", nil, "restrict to categories (repeatable; default all)")
	facilityNearbyCmd.Flags().StringVar(&facilityZip, "zip", "", "search around this ZIP code's centroid")

	facilityCmd.AddCommand(facilityCategoriesCmd)
	facilityCmd.AddCommand(facilityNearbyCmd)
	rootCmd.AddCommand(facilityCmd)
}
