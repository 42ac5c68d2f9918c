package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/ledger"
	"github.com/theirongolddev/tripgate/internal/model"
	"github.com/theirongolddev/tripgate/internal/pipeline"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Request activity by hour of day",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(_ *cobra.Command, _ []string) error {
	if flagRemote != "" {
		return errLocalOnly
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var hours []model.HourlyStats
	err = withRuntime(func(ctx context.Context, rt *gateway.Runtime) error {
		records, err := rt.Ledger.Records(ctx, ledger.Filter{
			UserID: flagUser,
			Since:  time.Now().AddDate(0, 0, -flagDays),
		})
		if err != nil {
			return err
		}
		hours = pipeline.AggregateHourly(records, loc)
		return nil
	})
	if err != nil {
		return err
	}

	who := "all users"
	if flagUser != "" {
		who = flagUser
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ACTIVITY BY HOUR  %s  Last %dd (%s)", who, flagDays, loc)))
	fmt.Println()

	peak := 0
	for _, h := range hours {
		if h.Requests > hours[peak].Requests {
			peak = h.Hour
		}
	}
	if hours[peak].Requests == 0 {
		fmt.Println("  No requests in the selected time range.")
		return nil
	}

	maxBarWidth := 40
	for _, h := range hours {
		bar := strings.Repeat("█", h.Requests*maxBarWidth/hours[peak].Requests)
		fmt.Printf("  %02d:00 │ %6s │ %s\n", h.Hour, cli.FormatNumber(int64(h.Requests)), bar)
	}

	fmt.Printf("\n  Peak: %02d:00 (%s requests, %s tokens)\n\n",
		peak, cli.FormatNumber(int64(hours[peak].Requests)), cli.FormatTokens(hours[peak].Tokens))
	return nil
}
