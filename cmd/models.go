package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Model usage breakdown for one user",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
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
	if len(stats.ByModel) == 0 {
		fmt.Println("\n  No model data in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MODEL USAGE  %s  Last %dd", flagUser, flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(stats.ByModel))
	for _, ms := range stats.ByModel {
		rows = append(rows, []string{
			ms.Model,
			cli.FormatNumber(int64(ms.Requests)),
			cli.FormatTokens(ms.InputTokens),
			cli.FormatTokens(ms.OutputTokens),
			cli.FormatCost(ms.Cost),
			cli.FormatPercent(ms.SharePercent),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Calls", "Input", "Output", "Cost", "Share"},
		Rows:    rows,
	}))
	return nil
}
