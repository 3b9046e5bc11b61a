// Command surgectl runs the planning units offline against request files.
//
// Usage:
//
//	surgectl report request.json
//	surgectl forecast --days 14 --format text request.json
//	surgectl validate --params model.yaml requests/*.json
//	surgectl sample --date 2025-10-20 --out testdata/
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// options are the flags shared by every planning subcommand.
type options struct {
	paramsFile string
	format     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "surgectl",
		Short:        "Hospital surge risk and resource forecasting",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.paramsFile, "params", "", "model parameter YAML file (defaults to built-in params)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "json", "output format: json or text")

	rootCmd.AddCommand(assessCmd(opts))
	rootCmd.AddCommand(forecastCmd(opts))
	rootCmd.AddCommand(staffingCmd(opts))
	rootCmd.AddCommand(suppliesCmd(opts))
	rootCmd.AddCommand(reportCmd(opts))
	rootCmd.AddCommand(validateCmd(opts))
	rootCmd.AddCommand(sampleCmd())

	return rootCmd
}

func assessCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assess [request-file]",
		Short: "Score the hospital risk index for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, opts, args[0])
		},
	}
}

func forecastCmd(opts *options) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "forecast [request-file]",
		Short: "Forecast daily patient load",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(cmd, opts, args[0], days)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "forecast horizon in days (1-14, 0 uses the request or default)")
	return cmd
}

func staffingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "staffing [request-file]",
		Short: "Plan day-one staffing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaffing(cmd, opts, args[0])
		},
	}
}

func suppliesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "supplies [request-file]",
		Short: "Plan day-one supply requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSupplies(cmd, opts, args[0])
		},
	}
}

func reportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report [request-file]",
		Short: "Assemble the full surge report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args[0])
		},
	}
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [request-file...]",
		Short: "Check the model params and request files without planning",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}
}

func sampleCmd() *cobra.Command {
	var (
		date string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write sample request fixtures and their reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSample(cmd, date, out)
		},
	}

	cmd.Flags().StringVar(&date, "date", "2025-10-20", "observation date of the samples (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
