package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/money"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Usage summary with costs for one user",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}

	var stats, wide model.UserStats
	err := withBackend(func(ctx context.Context, b backend) error {
		var err error
		if stats, err = b.UserStats(ctx, flagUser, flagDays); err != nil {
			return err
		}
		// The doubled window minus the current one is the previous period.
		wide, err = b.UserStats(ctx, flagUser, flagDays*2)
		return err
	})
	if err != nil {
		return err
	}

	tot := stats.Totals
	if tot.Requests == 0 {
		fmt.Printf("\n  No usage recorded for %s in the last %dd.\n", flagUser, flagDays)
		return nil
	}

	days := money.Amount(max(stats.Days, 1))
	costPerDay := tot.Cost / days
	prevCostPerDay := (wide.Totals.Cost - tot.Cost) / days

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("USAGE  %s  Last %dd", flagUser, flagDays)))
	fmt.Println()

	rows := [][]string{
		{"Requests", cli.FormatNumber(int64(tot.Requests))},
		{"Models", cli.FormatNumber(int64(len(stats.ByModel)))},
		{"Actions", cli.FormatNumber(int64(len(stats.ByAction)))},
		{"---"},
		{"Input Tokens", cli.FormatTokens(tot.InputTokens)},
		{"Output Tokens", cli.FormatTokens(tot.OutputTokens)},
		{"Total Tokens", cli.FormatTokens(tot.Tokens())},
		{"---"},
		{"Cost", cli.FormatCost(tot.Cost)},
	}

	costDayStr := fmt.Sprintf("%s/day", cli.FormatCost(costPerDay))
	if prevCostPerDay > 0 {
		costDayStr += fmt.Sprintf("  (%s vs prev %dd)", cli.FormatDelta(costPerDay, prevCostPerDay), flagDays)
	}
	rows = append(rows,
		[]string{"Cost/day", costDayStr},
		[]string{"Tokens/day", cli.FormatTokens(tot.Tokens() / int64(days))},
		[]string{"Requests/day", fmt.Sprintf("%.1f", float64(tot.Requests)/float64(days))},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	return nil
}
