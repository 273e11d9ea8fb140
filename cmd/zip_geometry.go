package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

var zipAreaCmd = &cobra.Command{
	Use:   "area <code>",
	Short: "Estimate the land area of a ZIP code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ok, msg, rec := env.index.Validate(args[0])
		if !ok {
			fmt.Printf("%s: %s\n", args[0], msg)
			return nil
		}

		if area, estimated := env.index.AreaEstimate(rec.Code); estimated {
			fmt.Printf("%s: %.2f sq mi\n", rec.Code, area)
		} else {
			fmt.Printf("%s: %.2f sq mi (no boundary polygon, default)\n", rec.Code, zipindex.FallbackAreaSqMi)
		}
		return nil
	},
}

var zipContainsCmd = &cobra.Command{
	Use:   "contains <code> <lat> <lon>",
	Short: "Check whether a point falls inside a ZIP code boundary",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lat, lon, err := parseLatLon(args[1], args[2])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ok, msg, rec := env.index.Validate(args[0])
		if !ok {
			fmt.Printf("%s: %s\n", args[0], msg)
			return nil
		}

		if env.index.Contains(lat, lon, rec.Code) {
			fmt.Printf("(%.6f, %.6f) is inside %s\n", lat, lon, rec.Code)
		} else {
			fmt.Printf("(%.6f, %.6f) is outside %s\n", lat, lon, rec.Code)
		}
		return nil
	},
}

var zipNearestCmd = &cobra.Command{
	Use:   "nearest <lat> <lon>",
	Short: "Find the ZIP code nearest to a point",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lat, lon, err := parseLatLon(args[0], args[1])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		code, ok := env.index.Nearest(lat, lon)
		if !ok {
			fmt.Printf("no ZIP code near (%.6f, %.6f)\n", lat, lon)
			return nil
		}

		centroid, _ := env.index.Coordinates(code)
		dist := zipindex.DistanceMiles(zipindex.LatLon{Lat: lat, Lon: lon}, centroid)
		fmt.Printf("%s (centroid %.2f mi away)\n", code, dist)
		return nil
	},
}

var zipNeighborRadius float64

var zipNeighborsCmd = &cobra.Command{
	Use:   "neighbors <code>",
	Short: "List ZIP codes whose centroids fall within a radius",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ok, msg, rec := env.index.Validate(args[0])
		if !ok {
			fmt.Printf("%s: %s\n", args[0], msg)
			return nil
		}

		neighbors := env.index.Neighbors(rec.Code, zipNeighborRadius)
		if len(neighbors) == 0 {
			fmt.Printf("no neighbors within %.1f mi of %s\n", zipNeighborRadius, rec.Code)
			return nil
		}

		origin := rec.Centroid
		for _, n := range neighbors {
			centroid, _ := env.index.Coordinates(n)
			fmt.Printf("%s  %.2f mi\n", n, zipindex.DistanceMiles(origin, centroid))
		}
		return nil
	},
}

func init() {
	zipNeighborsCmd.Flags().Float64Var(&zipNeighborRadius, "radius", 5, "search radius in miles")
	zipCmd.AddCommand(zipAreaCmd)
	zipCmd.AddCommand(zipContainsCmd)
	zipCmd.AddCommand(zipNearestCmd)
	zipCmd.AddCommand(zipNeighborsCmd)
}
