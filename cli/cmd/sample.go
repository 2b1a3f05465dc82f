package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/cli/pkg/output"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

func newSampleCmd(a *app) *cobra.Command {
	var page string
	var count int
	var seed int64
	c := &cobra.Command{
		Use:   "sample",
		Short: "Generate fake records for a page",
		Long: `Generate fake records for a page. The JSON output can be fed back to
"apply --records" to try views without a node.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := resource.Lookup(page)
			if err != nil {
				return err
			}
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			records := resource.Sample(res, count, seed)

			p := a.printer(cmd)
			if a.json() {
				return p.JSON(records)
			}
			output.RecordTable(res.ResolveColumns(res.DefaultColumns), records).Render(p.Out)
			return nil
		},
	}
	c.Flags().StringVar(&page, "page", "", "page to generate records for")
	c.Flags().IntVar(&count, "count", 10, "number of records")
	c.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")
	_ = c.MarkFlagRequired("page")
	return c
}
