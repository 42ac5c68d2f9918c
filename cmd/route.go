package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/client"
	"github.com/theirongolddev/tripgate/internal/router"
)

var (
	flagRouteAction        string
	flagRouteContextTokens int64
)

var routeCmd = &cobra.Command{
	Use:   "route <message>",
	Short: "Classify a message and show the model it would be routed to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().StringVarP(&flagRouteAction, "action", "a", "", "Client action (overrides classification when known)")
	routeCmd.Flags().Int64Var(&flagRouteContextTokens, "context-tokens", 0, "Tokens of trip context sent with the message")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(_ *cobra.Command, args []string) error {
	req := router.Request{
		Message:       strings.Join(args, " "),
		ContextTokens: flagRouteContextTokens,
		Action:        flagRouteAction,
	}

	var d router.Decision
	if flagRemote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var err error
		d, err = client.New(flagRemote).Route(ctx, req)
		if err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := router.New(cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		d = rt.Route(req)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ROUTING DECISION"))
	fmt.Println()

	c := d.Classification
	tier := string(d.Tier)
	if d.ActionOverride {
		tier += " (action " + req.Action + ")"
	}
	model := d.Model.ID
	if d.Fallback {
		model += " (fallback)"
	}
	fmt.Print(cli.RenderKV([][2]string{
		{"Complexity", string(c.Complexity)},
		{"Rule", c.Rule},
		{"Recommended", string(c.RecommendedTier)},
		{"Needs context", fmt.Sprintf("%v", c.RequiresContext)},
		{"Tier", tier},
		{"Model", model},
		{"Input tokens", cli.RenderTokens(cli.FormatTokens(d.InputTokens))},
		{"Output tokens", cli.RenderTokens(cli.FormatTokens(d.OutputTokens))},
		{"Est. cost", cli.RenderCost(cli.FormatCost(d.EstimatedCost))},
	}))
	fmt.Println()
	if d.Reason != "" && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  %s\n\n", d.Reason)
	}
	return nil
}
