package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/model"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily usage table for one user",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}

	var stats model.UserStats
	err := withBackend(func(ctx context.Context, b backend) error {
		var err error
		stats, err = b.UserStats(ctx, flagUser, flagDays)
		return err
	})
	if err != nil {
		return err
	}
	if stats.Totals.Requests == 0 {
		fmt.Printf("\n  No usage recorded for %s in the last %dd.\n", flagUser, flagDays)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY USAGE  %s  Last %dd", flagUser, flagDays)))
	fmt.Println()

	// Daily is most recent first; the sparkline reads left to right.
	series := make([]float64, len(stats.Daily))
	rows := make([][]string, 0, len(stats.Daily))
	for i, d := range stats.Daily {
		series[len(stats.Daily)-1-i] = d.Cost.Float()
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Requests)),
			cli.FormatTokens(d.InputTokens),
			cli.FormatTokens(d.OutputTokens),
			cli.FormatCost(d.Cost),
		})
	}

	fmt.Printf("  Spend  %s\n\n", cli.RenderSparkline(series))
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Requests", "Input", "Output", "Cost"},
		Rows:    rows,
	}))
	return nil
}
