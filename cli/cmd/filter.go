package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

func newFilterCmd(a *app) *cobra.Command {
	filterCmd := &cobra.Command{
		Use:   "filter",
		Short: "Work with filter documents",
	}

	var page string
	var maxDepth int
	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a filter document decodes and uses known comparators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc filter.Document
			if err := readJSON(args[0], &doc); err != nil {
				return err
			}
			codec := filter.NewCodec(filter.Default, filter.WithMaxDepth(maxDepth))
			clause, err := codec.Deserialize(&doc)
			if err != nil {
				return err
			}

			problems := filter.NewEvaluator(filter.Default).Check(clause)
			if page != "" {
				res, err := resource.Lookup(page)
				if err != nil {
					return err
				}
				problems = append(problems, unknownKeys(clause, res)...)
			}

			p := a.printer(cmd)
			for _, pr := range problems {
				p.Warn("%v", pr)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) in %s", len(problems), args[0])
			}
			p.Success("%s is valid (%s)", args[0], filterSummaryOf(clause))
			return nil
		},
	}
	validateCmd.Flags().StringVar(&page, "page", "", "also check keys against this page's columns")
	validateCmd.Flags().IntVar(&maxDepth, "max-depth", filter.DefaultMaxDepth, "maximum nesting depth")

	filterCmd.AddCommand(validateCmd, newFilterTemplateCmd(a))
	return filterCmd
}

var errUnknownKey = errors.New("unknown column")

func unknownKeys(c filter.Clause, res *resource.Resource) []error {
	var errs []error
	filter.Walk(c, func(cl filter.Clause) bool {
		if leaf, ok := cl.(*filter.Leaf); ok {
			if _, known := res.Column(leaf.Key); !known {
				errs = append(errs, fmt.Errorf("%w %q for page %s", errUnknownKey, leaf.Key, res.Page))
			}
		}
		return true
	})
	return errs
}

func filterSummaryOf(c filter.Clause) string {
	if s := filterSummary(filter.Serialize(c)); s != "" {
		return s
	}
	return "no conditions"
}
