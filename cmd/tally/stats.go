package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/report"
)

func statsCmd() *cobra.Command {
	var (
		period string
		date   string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show income and expense totals for a week, month or year",
		Example: `  # This month
  tally stats

  # The ISO week containing 2024-03-10
  tally stats --period week --date 2024-03-10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := report.ParsePeriod(period)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			var ref *time.Time
			if date != "" {
				d, err := parseDateFlag("date", date, a.reporter.Location())
				if err != nil {
					return err
				}
				ref = &d
			}

			stats, err := a.reporter.Stats(cmd.Context(), p, ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", string(report.DefaultPeriod), "week, month or year")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Any day inside the period (YYYY-MM-DD, default today)")

	return cmd
}
