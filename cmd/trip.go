package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/model"
)

var tripCmd = &cobra.Command{
	Use:   "trip <trip-id>",
	Short: "Usage and cost attributed to one trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrip,
}

func init() {
	rootCmd.AddCommand(tripCmd)
}

func runTrip(_ *cobra.Command, args []string) error {
	tripID := args[0]

	var ts model.TripStats
	err := withBackend(func(ctx context.Context, b backend) error {
		var err error
		ts, err = b.TripStats(ctx, tripID)
		return err
	})
	if err != nil {
		return err
	}
	if ts.Totals.Requests == 0 {
		fmt.Printf("\n  No usage recorded for trip %s.\n", tripID)
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("TRIP " + tripID))
	fmt.Println()

	span := ts.LastSeen.Sub(ts.FirstSeen)
	fmt.Print(cli.RenderKV([][2]string{
		{"Requests", cli.FormatNumber(int64(ts.Totals.Requests))},
		{"Tokens", cli.RenderTokens(cli.FormatTokens(ts.Totals.Tokens()))},
		{"Cost", cli.RenderCost(cli.FormatCost(ts.Totals.Cost))},
		{"First seen", ts.FirstSeen.Local().Format("2006-01-02 15:04")},
		{"Last seen", ts.LastSeen.Local().Format("2006-01-02 15:04")},
		{"Active span", cli.FormatDuration(int64(span.Seconds()))},
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Action",
		Headers: []string{"Action", "Requests", "Tokens", "Cost", "Share"},
		Rows:    actionRows(ts.ByAction),
	}))
	return nil
}
