package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/client"
	"github.com/theirongolddev/tripgate/internal/router"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the model catalog and action tiers",
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(_ *cobra.Command, _ []string) error {
	var (
		models     []router.ModelConfig
		actionRows [][]string
	)
	if flagRemote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var err error
		models, err = client.New(flagRemote).Catalog(ctx)
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
		models = rt.Catalog().Models()
		for _, name := range rt.Actions().Names() {
			t, _ := rt.Actions().Lookup(name)
			actionRows = append(actionRows, []string{name, string(t)})
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MODEL CATALOG"))
	fmt.Println()

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			m.ID,
			string(m.Tier),
			cli.FormatCost(m.CostPer1K),
			cli.FormatTokens(int64(m.MaxContextTokens)),
			strings.Join(m.BestFor, ", "),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Tier", "Per 1K", "Context", "Best For"},
		Rows:    rows,
	}))

	// The daemon's catalog endpoint does not carry the action table.
	if len(actionRows) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Action Tiers",
		Headers: []string{"Action", "Tier"},
		Rows:    actionRows,
	}))
	return nil
}
