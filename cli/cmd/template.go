package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/cli/pkg/output"
	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

// starter is a filter and sort to begin editing a view from.
type starter struct {
	Filter *filter.Document `json:"filter"`
	SortBy model.SortSpec   `json:"sortBy"`
}

func newFilterTemplateCmd(a *app) *cobra.Command {
	var page, column string
	c := &cobra.Command{
		Use:   "template",
		Short: "Print a starter filter and sort for a page",
		Long: `Print a starter filter and sort for a page. The filter holds one condition,
on --column if given or on the page's default filter column. Edit it and pass
it to "views update --filter".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := resource.Lookup(page)
			if err != nil {
				return err
			}
			leaf := res.FilterTemplate
			if column != "" {
				col, ok := res.Column(column)
				if !ok {
					return fmt.Errorf("%w %q for page %s", errUnknownKey, column, res.Page)
				}
				leaf = leafFor(res, col)
			}
			clause, err := filter.Deserialize(&leaf)
			if err != nil {
				return err
			}
			tmpl := starter{
				Filter: filter.Serialize(filter.NewAnd(clause)),
				SortBy: model.SortSpec{res.SortTemplate},
			}

			p := a.printer(cmd)
			if a.json() {
				return p.JSON(tmpl)
			}
			t := output.NewTable([]string{"KEY", "HEADING", "FILTER", "SORTABLE"})
			for _, col := range res.Columns {
				sortable := ""
				if res.IsSortable(col.Key) {
					sortable = "yes"
				}
				t.AddRow([]string{col.Key, col.Heading, string(resource.FilterCategory(col.ValueType)), sortable})
			}
			t.Render(p.Out)
			p.Info("starter filter: %s %s %s", leaf.Key, leaf.FuncName, output.FormatValue(leaf.Parameter))
			p.Info("starter sort: %s", formatSort(tmpl.SortBy))
			return nil
		},
	}
	c.Flags().StringVar(&page, "page", "", "page to build the template for")
	c.Flags().StringVar(&column, "column", "", "column the starter condition filters on")
	_ = c.MarkFlagRequired("page")
	return c
}

// leafFor returns a condition on col with a neutral comparator and parameter
// for its filter category.
func leafFor(res *resource.Resource, col model.ColumnMetaData) filter.Document {
	cat := resource.FilterCategory(col.ValueType)
	doc := filter.Document{Type: string(cat), Key: col.Key}
	switch cat {
	case filter.CategoryNumber:
		doc.FuncName, doc.Parameter = filter.FuncGte, 0.0
	case filter.CategoryBoolean:
		doc.FuncName, doc.Parameter = filter.FuncEq, true
	case filter.CategoryDate:
		doc.FuncName, doc.Parameter = filter.FuncGte, map[string]any{"last": "7d"}
	case filter.CategoryArray:
		values := []any{}
		if opts := res.EnumOptions[col.Key]; len(opts) > 0 {
			values = append(values, opts[0])
		}
		doc.FuncName, doc.Parameter = filter.FuncIncludes, values
	default:
		doc.FuncName, doc.Parameter = filter.FuncLike, ""
	}
	return doc
}
