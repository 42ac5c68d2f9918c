package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/config"
	"github.com/theirongolddev/tripgate/internal/quota"
)

var flagQuotaTier string

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show a user's quota usage without consuming a request",
	RunE:  runQuota,
}

func init() {
	quotaCmd.Flags().StringVarP(&flagQuotaTier, "tier", "t", config.CallerFree, "Caller tier (free, premium)")
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(_ *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}

	var d quota.Decision
	err := withBackend(func(ctx context.Context, b backend) error {
		var err error
		d, err = b.PeekQuota(ctx, flagUser, flagQuotaTier)
		return err
	})
	// A fail-closed decision still carries the limits worth showing.
	if err != nil && d.Window != quota.WindowUnknown {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("QUOTA  %s (%s)", flagUser, d.CallerTier)))
	fmt.Println()

	st := d.Stats
	l := d.Limit
	rows := [][]string{
		quotaRow("Minute", int64(st.RequestsLastMinute), int64(l.RequestsPerMinute)),
		quotaRow("Hour", int64(st.RequestsLastHour), int64(l.RequestsPerHour)),
		quotaRow("Day tokens", st.TokensToday, l.TokensPerDay),
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Window", "Usage"},
		Rows:    rows,
	}))
	fmt.Println()

	pairs := [][2]string{
		{"Cost today", cli.RenderCost(cli.FormatCost(st.CostToday))},
		{"Requests left", cli.FormatNumber(int64(st.RemainingRequests))},
		{"Tokens left", cli.RenderTokens(cli.FormatTokens(st.RemainingTokens))},
	}
	if !st.ResetsAt.IsZero() {
		pairs = append(pairs, [2]string{"Day resets", st.ResetsAt.Local().Format("Jan 02 15:04 MST")})
	}
	fmt.Print(cli.RenderKV(pairs))
	fmt.Println()

	if d.Allowed {
		fmt.Println("  Next request: allowed")
	} else {
		msg := fmt.Sprintf("Next request: blocked (%s)", d.Reason)
		if st.RetryAfter > 0 {
			msg += ", retry in " + cli.FormatWait(st.RetryAfter.Round(time.Second))
		}
		fmt.Println("  " + cli.RenderWarning(msg))
	}
	if err != nil {
		fmt.Println("  " + cli.RenderWarning(err.Error()))
	}
	fmt.Println()
	return nil
}

func quotaRow(label string, used, limit int64) []string {
	return []string{label, cli.RenderQuotaBar(used, limit, 20)}
}
