package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"timefilter/internal/expr"
	"timefilter/internal/services"

	"github.com/spf13/cobra"
)

type presetsFlags struct {
	period      string
	comparisons bool
	resolve     bool
	timezone    string
}

func newPresetsCmd() *cobra.Command {
	flags := &presetsFlags{}

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Print the time filter menu for a period",
		Example: `  timefilter presets --period latest
  timefilter presets --period previous --resolve
  timefilter presets --comparisons`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.comparisons {
				return runComparisons(cmd)
			}
			return runPresets(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.period, "period", string(services.PeriodLatest), "Period (latest, current, previous)")
	cmd.Flags().BoolVar(&flags.comparisons, "comparisons", false, "Print the comparison shift menu instead")
	cmd.Flags().BoolVar(&flags.resolve, "resolve", false, "Resolve each filter against the current time")
	cmd.Flags().StringVar(&flags.timezone, "timezone", "UTC", "Time zone used to floor calendar periods")

	return cmd
}

func runPresets(cmd *cobra.Command, flags *presetsFlags) error {
	period, ok := services.ParseTimeFilterPeriod(flags.period)
	if !ok {
		return fmt.Errorf("unknown period %q (want one of %s)", flags.period, periodNames())
	}
	loc, err := time.LoadLocation(flags.timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	now := time.Now()
	refs := expr.References{Now: now, MaxTime: now, Location: loc}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := "NAME\tDURATION\tFILTER"
	if flags.resolve {
		header += "\tSTART\tEND"
	}
	fmt.Fprintln(w, header)

	for _, preset := range services.GetTimeFilterPresets(period) {
		filter := services.ConstructFilter(period, preset.Duration)
		row := fmt.Sprintf("%s\t%s\t%s", preset.Name, preset.Duration, filter)
		if flags.resolve {
			tr, err := expr.Resolve(filter, refs)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", preset.Name, err)
			}
			row += fmt.Sprintf("\t%s\t%s", tr.Start().In(loc).Format(time.RFC3339), tr.End().In(loc).Format(time.RFC3339))
		}
		fmt.Fprintln(w, row)
	}
	return w.Flush()
}

func runComparisons(cmd *cobra.Command) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tSHIFT")
	for _, preset := range services.ComparisonPresets() {
		shift := preset.Shift.String()
		if shift == "" {
			shift = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", preset.Label, shift)
	}
	return w.Flush()
}

func periodNames() string {
	names := make([]string, 0, len(services.TimeFilterPeriods))
	for _, p := range services.TimeFilterPeriods {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
