package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

var zipValidateCmd = &cobra.Command{
	Use:   "validate <code>",
	Short: "Validate a ZIP code against county boundaries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Format errors need no boundary data.
		if !zipindex.ValidateFormat(args[0]) {
			fmt.Printf("%s: %s\n", args[0], zipindex.MsgInvalidFormat)
			return nil
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		_, msg, _ := env.index.Validate(args[0])
		fmt.Printf("%s: %s\n", args[0], msg)
		return nil
	},
}

var zipInfoCmd = &cobra.Command{
	Use:   "info <code>",
	Short: "Show centroid, area, and attributes for a ZIP code",
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

		fmt.Printf("ZIP code:  %s\n", rec.Code)
		fmt.Printf("Centroid:  %.6f, %.6f\n", rec.Centroid.Lat, rec.Centroid.Lon)
		if area, estimated := env.index.AreaEstimate(rec.Code); estimated {
			fmt.Printf("Area:      %.2f sq mi (estimated from boundary)\n", area)
		} else {
			fmt.Printf("Area:      %.2f sq mi (default)\n", zipindex.FallbackAreaSqMi)
		}

		if len(rec.Attributes) > 0 {
			keys := make([]string, 0, len(rec.Attributes))
			for k := range rec.Attributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Println("Attributes:")
			for _, k := range keys {
				fmt.Printf("  %-14s %v\n", k, rec.Attributes[k])
			}
		}
		return nil
	},
}

var zipListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every ZIP code in the service area",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		for _, code := range env.index.AllCodes() {
			fmt.Println(code)
		}
		fmt.Printf("\n%d ZIP codes\n", env.index.Len())
		return nil
	},
}

func init() {
	zipCmd.AddCommand(zipValidateCmd)
	zipCmd.AddCommand(zipInfoCmd)
	zipCmd.AddCommand(zipListCmd)
}
