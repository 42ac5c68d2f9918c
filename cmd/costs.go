package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/model"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Spend by model tier for one user",
	RunE:  runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
}

func runCosts(_ *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	if flagRemote != "" {
		return errLocalOnly
	}

	var tiers []model.TierStats
	err := withRuntime(func(ctx context.Context, rt *gateway.Runtime) error {
		var err error
		tiers, err = rt.TierSpend(ctx, flagUser, flagDays)
		return err
	})
	if err != nil {
		return err
	}
	if len(tiers) == 0 {
		fmt.Printf("\n  No usage recorded for %s in the last %dd.\n", flagUser, flagDays)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SPEND BY TIER  %s  Last %dd", flagUser, flagDays)))
	fmt.Println()

	var total model.Totals
	rows := make([][]string, 0, len(tiers)+2)
	for _, ts := range tiers {
		total.Requests += ts.Requests
		total.InputTokens += ts.InputTokens
		total.OutputTokens += ts.OutputTokens
		total.Cost += ts.Cost
		rows = append(rows, []string{
			ts.Tier,
			cli.FormatNumber(int64(ts.Requests)),
			cli.FormatTokens(ts.Tokens()),
			cli.FormatCost(ts.Cost),
			cli.FormatPercent(ts.SharePercent),
		})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"TOTAL", cli.FormatNumber(int64(total.Requests)), cli.FormatTokens(total.Tokens()), cli.FormatCost(total.Cost), ""},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Tier", "Requests", "Tokens", "Cost", "Share"},
		Rows:    rows,
	}))
	return nil
}
