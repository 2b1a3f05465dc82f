package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/cli/internal/client"
	"github.com/telhawk-systems/tableviews/cli/pkg/output"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/transform"
)

const (
	dateLayout       = "2006-01-02"
	defaultRangeDays = 7
)

type applyOptions struct {
	page    string
	viewID  int64
	index   int
	records string
	from    string
	to      string
	limit   int
}

func newApplyCmd(a *app) *cobra.Command {
	opts := applyOptions{index: -1}
	c := &cobra.Command{
		Use:   "apply",
		Short: "Show the rows a view produces",
		Long: `Apply a saved view to records and print the resulting rows.

Records are read from --records or fetched from the node for the --from/--to
date range (default: the last 7 days, both ends inclusive). The view is
selected by --view or --index; without either the first view is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd, opts)
		},
	}
	c.Flags().StringVar(&opts.page, "page", "", "page to apply a view of")
	c.Flags().Int64Var(&opts.viewID, "view", 0, "stored view id")
	c.Flags().IntVar(&opts.index, "index", -1, "view position on the page")
	c.Flags().StringVar(&opts.records, "records", "", "read records from a JSON file instead of the node")
	c.Flags().StringVar(&opts.from, "from", "", "first day (YYYY-MM-DD)")
	c.Flags().StringVar(&opts.to, "to", "", "last day (YYYY-MM-DD)")
	c.Flags().IntVar(&opts.limit, "limit", 0, "print at most this many rows")
	_ = c.MarkFlagRequired("page")
	c.MarkFlagsMutuallyExclusive("view", "index")
	c.MarkFlagsMutuallyExclusive("records", "from")
	c.MarkFlagsMutuallyExclusive("records", "to")
	return c
}

func (a *app) runApply(cmd *cobra.Command, opts applyOptions) error {
	ctx := cmd.Context()
	m, err := a.manager(ctx, opts.page)
	if err != nil {
		return err
	}

	state := m.Store().State()
	switch {
	case opts.viewID > 0:
		i, ok := state.IndexByID(opts.viewID)
		if !ok {
			return fmt.Errorf("view %d: %w", opts.viewID, catalog.ErrViewNotFound)
		}
		state, err = state.SelectView(i)
	case opts.index >= 0:
		state, err = state.SelectView(opts.index)
	}
	if err != nil {
		return err
	}
	view := state.Current()
	res := state.Resource()

	records, err := a.loadRecords(cmd, opts)
	if err != nil {
		return err
	}

	result := transform.Run(records, view, res)
	p := a.printer(cmd)
	for _, w := range result.Warnings {
		p.Warn("%v", w)
	}

	rows := result.Records
	if opts.limit > 0 && len(rows) > opts.limit {
		rows = rows[:opts.limit]
	}
	if a.json() {
		return p.JSON(rows)
	}
	output.RecordTable(res.ResolveColumns(view.Columns), rows).Render(p.Out)
	p.Info("%d of %d rows (%s)", len(rows), len(result.Records), view.Title)
	return nil
}

func (a *app) loadRecords(cmd *cobra.Command, opts applyOptions) ([]model.Record, error) {
	if opts.records != "" {
		data, err := os.ReadFile(opts.records)
		if err != nil {
			return nil, err
		}
		page, err := client.DecodeRecords(json.RawMessage(data))
		if err != nil {
			return nil, err
		}
		return page.Records, nil
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if opts.to != "" {
		t, err := time.Parse(dateLayout, opts.to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to: %w", err)
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultRangeDays - 1))
	if opts.from != "" {
		t, err := time.Parse(dateLayout, opts.from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from: %w", err)
		}
		from = t
	}
	if from.After(to) {
		return nil, fmt.Errorf("--from %s is after --to %s", from.Format(dateLayout), to.Format(dateLayout))
	}

	page, err := a.client().FetchRecords(cmd.Context(), model.RecordQuery{Page: opts.page, From: from, To: to})
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}
