package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/ledger"
)

var usersLimit int

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Top users by spend",
	RunE:  runUsers,
}

func init() {
	usersCmd.Flags().IntVarP(&usersLimit, "limit", "l", 20, "Number of users to show")
	rootCmd.AddCommand(usersCmd)
}

func runUsers(_ *cobra.Command, _ []string) error {
	if flagRemote != "" {
		return errLocalOnly
	}

	var users []ledger.UserTotals
	err := withRuntime(func(ctx context.Context, rt *gateway.Runtime) error {
		var err error
		users, err = rt.Ledger.Users(ctx, time.Now().AddDate(0, 0, -flagDays))
		return err
	})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("\n  No users in the selected time range.")
		return nil
	}
	if usersLimit > 0 && len(users) > usersLimit {
		users = users[:usersLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("USERS  Last %dd (showing %d)", flagDays, len(users))))
	fmt.Println()

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.UserID,
			cli.FormatNumber(int64(u.Requests)),
			cli.FormatTokens(u.Tokens()),
			cli.FormatCost(u.Cost),
			u.LastSeen.Local().Format("Jan 02 15:04"),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"User", "Requests", "Tokens", "Cost", "Last Seen"},
		Rows:    rows,
	}))
	return nil
}
