package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/model"
)

var actionsLimit int

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Usage by client action for one user",
	RunE:  runActions,
}

func init() {
	actionsCmd.Flags().IntVarP(&actionsLimit, "limit", "l", 20, "Number of actions to show")
	rootCmd.AddCommand(actionsCmd)
}

func runActions(_ *cobra.Command, _ []string) error {
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

	actions := stats.ByAction
	if len(actions) == 0 {
		fmt.Println("\n  No actions in the selected time range.")
		return nil
	}
	if actionsLimit > 0 && len(actions) > actionsLimit {
		actions = actions[:actionsLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ACTIONS  %s  Last %dd", flagUser, flagDays)))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Action", "Requests", "Tokens", "Cost", "Share"},
		Rows:    actionRows(actions),
	}))
	return nil
}

func actionRows(actions []model.ActionStats) [][]string {
	rows := make([][]string, 0, len(actions))
	for _, as := range actions {
		rows = append(rows, []string{
			as.Action,
			cli.FormatNumber(int64(as.Requests)),
			cli.FormatTokens(as.Tokens()),
			cli.FormatCost(as.Cost),
			cli.FormatPercent(as.SharePercent),
		})
	}
	return rows
}
