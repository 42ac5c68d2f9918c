package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/money"
	"github.com/theirongolddev/tripgate/internal/recorder"
	"github.com/theirongolddev/tripgate/internal/spool"
)

var spoolCmd = &cobra.Command{
	Use:   "spool",
	Short: "Inspect or replay usage records that could not reach the ledger",
}

var spoolStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show records waiting in the spool",
	RunE:  runSpoolStatus,
}

var spoolReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Write spooled records into the ledger now",
	RunE:  runSpoolReplay,
}

func init() {
	spoolCmd.AddCommand(spoolStatusCmd)
	spoolCmd.AddCommand(spoolReplayCmd)
	rootCmd.AddCommand(spoolCmd)
}

func runSpoolStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sp := spool.New(cfg.SpoolPath())
	res, err := sp.Load()
	if err != nil {
		return err
	}

	var cost money.Amount
	var tokens int64
	for _, r := range res.Records {
		cost += r.Cost
		tokens += r.TotalTokens()
	}

	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Spool", sp.Path()},
		{"Pending", cli.FormatNumber(int64(len(res.Records)))},
		{"Tokens", cli.RenderTokens(cli.FormatTokens(tokens))},
		{"Cost", cli.RenderCost(cli.FormatCost(cost))},
	}))
	if res.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %s\n", cli.RenderWarning(fmt.Sprintf("%d lines could not be parsed", res.ParseErrors)))
	}
	if len(res.Records) > 0 {
		fmt.Println("\n  Run `tripgate spool replay` or keep the daemon running to drain it.")
	}
	fmt.Println()
	return nil
}

func runSpoolReplay(_ *cobra.Command, _ []string) error {
	var res recorder.ReplayResult
	err := withRuntime(func(ctx context.Context, rt *gateway.Runtime) error {
		var err error
		res, err = rt.Recorder.Replay(ctx)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  Replayed %s records, %s still pending\n",
		cli.FormatNumber(int64(res.Replayed)), cli.FormatNumber(int64(res.Pending)))
	if res.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning(fmt.Sprintf("%d lines could not be parsed", res.ParseErrors)))
	}
	fmt.Println()
	return nil
}
