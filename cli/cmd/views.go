package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/cli/pkg/output"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/filter"
	"github.com/telhawk-systems/tableviews/pkg/model"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

func newViewsCmd(a *app) *cobra.Command {
	viewsCmd := &cobra.Command{
		Use:     "views",
		Aliases: []string{"view"},
		Short:   "Manage saved table views",
	}
	viewsCmd.AddCommand(
		newViewsListCmd(a),
		newViewsShowCmd(a),
		newViewsCreateCmd(a),
		newViewsUpdateCmd(a),
		newViewsDeleteCmd(a),
		newViewsReorderCmd(a),
	)
	return viewsCmd
}

func newViewsListCmd(a *app) *cobra.Command {
	var page string
	c := &cobra.Command{
		Use:   "list",
		Short: "List the views of a page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resource.Lookup(page); err != nil {
				return err
			}
			envs, err := a.client().ListViews(cmd.Context(), page)
			if err != nil {
				return err
			}
			p := a.printer(cmd)
			if a.json() {
				return p.JSON(envs)
			}
			tbl := output.NewTable([]string{"ID", "Order", "Title", "Columns", "Sort", "Group", "Filter"})
			for _, env := range envs {
				id := "-"
				if env.ID != nil {
					id = strconv.FormatInt(*env.ID, 10)
				}
				group := ""
				if env.View.GroupBy != nil {
					group = *env.View.GroupBy
				}
				tbl.AddRow([]string{
					id,
					strconv.Itoa(env.View.ViewOrder),
					env.View.Title,
					strconv.Itoa(len(env.View.Columns)),
					formatSort(env.View.SortBy),
					group,
					filterSummary(env.View.Filter),
				})
			}
			tbl.Render(p.Out)
			return nil
		},
	}
	c.Flags().StringVar(&page, "page", "", "page the views belong to ("+strings.Join(resource.Pages(), ", ")+")")
	_ = c.MarkFlagRequired("page")
	return c
}

func newViewsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := a.client().GetView(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printer(cmd).JSON(env)
		},
	}
}

func newViewsCreateCmd(a *app) *cobra.Command {
	var page string
	var edits viewEdits
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a view from the page defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.manager(ctx, page)
			if err != nil {
				return err
			}
			res := m.Store().State().Resource()
			changes, err := edits.transitions(cmd)
			if err != nil {
				return err
			}

			state, err := m.Store().Dispatch(func(c catalog.Catalog) (catalog.Catalog, error) {
				return apply(c.AddView(catalog.NewView(res)), changes)
			})
			if err != nil {
				return err
			}
			local := state.Current().LocalID
			if err := m.Save(ctx, local); err != nil {
				return err
			}
			return a.reportSaved(cmd, m, local, "Created")
		},
	}
	c.Flags().StringVar(&page, "page", "", "page the view belongs to")
	_ = c.MarkFlagRequired("page")
	edits.register(c)
	return c
}

func newViewsUpdateCmd(a *app) *cobra.Command {
	var edits viewEdits
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a stored view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, local, err := a.managerFor(ctx, id)
			if err != nil {
				return err
			}
			changes, err := edits.transitions(cmd)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				return errors.New("no changes provided")
			}

			if _, err := m.Store().Dispatch(func(c catalog.Catalog) (catalog.Catalog, error) {
				i, _ := c.Index(local)
				c, err := c.SelectView(i)
				if err != nil {
					return c, err
				}
				return apply(c, changes)
			}); err != nil {
				return err
			}
			if err := m.Save(ctx, local); err != nil {
				return err
			}
			return a.reportSaved(cmd, m, local, "Updated")
		},
	}
	edits.register(c)
	return c
}

func newViewsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, local, err := a.managerFor(ctx, id)
			if err != nil {
				return err
			}
			if err := m.Delete(ctx, local); err != nil {
				return err
			}
			a.printer(cmd).Success("Deleted view %d", id)
			return nil
		},
	}
}

func newViewsReorderCmd(a *app) *cobra.Command {
	var page string
	c := &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Move views to the front in the given order",
		Long: `Reorder the views of a page. The listed views come first, in the order
given; the remaining views keep their relative order after them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := a.manager(ctx, page)
			if err != nil {
				return err
			}
			state := m.Store().State()

			seen := make(map[string]bool, len(args))
			order := make([]string, 0, state.Len())
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				i, ok := state.IndexByID(id)
				if !ok {
					return fmt.Errorf("view %d not found on page %s", id, page)
				}
				local := state.Views()[i].LocalID
				if seen[local] {
					return fmt.Errorf("view %d listed twice", id)
				}
				seen[local] = true
				order = append(order, local)
			}
			for _, v := range state.Views() {
				if !seen[v.LocalID] {
					order = append(order, v.LocalID)
				}
			}

			if _, err := m.Store().Dispatch(func(c catalog.Catalog) (catalog.Catalog, error) {
				return c.ReorderViews(order)
			}); err != nil {
				return err
			}
			if err := m.SaveOrder(ctx); err != nil {
				return err
			}
			a.printer(cmd).Success("Saved order of %d views on %s", m.Store().State().Len(), page)
			return nil
		},
	}
	c.Flags().StringVar(&page, "page", "", "page the views belong to")
	_ = c.MarkFlagRequired("page")
	return c
}

// managerFor loads the catalog holding the stored view id and returns the
// view's local id.
func (a *app) managerFor(ctx context.Context, id int64) (*catalog.Manager, string, error) {
	env, err := a.client().GetView(ctx, id)
	if err != nil {
		return nil, "", err
	}
	m, err := a.manager(ctx, env.Page)
	if err != nil {
		return nil, "", err
	}
	state := m.Store().State()
	i, ok := state.IndexByID(id)
	if !ok {
		return nil, "", fmt.Errorf("view %d: %w", id, catalog.ErrViewNotFound)
	}
	return m, state.Views()[i].LocalID, nil
}

func (a *app) reportSaved(cmd *cobra.Command, m *catalog.Manager, local, verb string) error {
	state := m.Store().State()
	v, ok := state.View(local)
	if !ok || v.ID == nil {
		return catalog.ErrViewNotFound
	}
	p := a.printer(cmd)
	if a.json() {
		i, _ := state.Index(local)
		return p.JSON(catalog.Envelope{ID: v.ID, Page: state.Resource().Page, View: v.Document(state.Resource(), i)})
	}
	p.Success("%s view %d (%s)", verb, *v.ID, v.Title)
	return nil
}

// viewEdits collects the edit flags shared by create and update.
type viewEdits struct {
	fromFile   string
	title      string
	filterFile string
	sort       string
	group      string
	columns    string
}

func (e *viewEdits) register(c *cobra.Command) {
	c.Flags().StringVar(&e.fromFile, "from-file", "", "path to a view document (JSON)")
	c.Flags().StringVar(&e.title, "title", "", "view title")
	c.Flags().StringVar(&e.filterFile, "filter", "", "path to a filter document (JSON)")
	c.Flags().StringVar(&e.sort, "sort", "", "sort keys, e.g. capacity:desc,peerAlias")
	c.Flags().StringVar(&e.group, "group", "", "group rows by this key or alias")
	c.Flags().StringVar(&e.columns, "columns", "", "comma separated column keys")
}

// transitions turns the set flags into catalog edits of the selected view.
// --from-file is applied first so individual flags override it.
func (e *viewEdits) transitions(cmd *cobra.Command) ([]catalog.Transition, error) {
	var out []catalog.Transition

	if e.fromFile != "" {
		var doc catalog.Document
		if err := readJSON(e.fromFile, &doc); err != nil {
			return nil, err
		}
		v := catalog.FromEnvelope(catalog.Envelope{View: doc})
		if v.Title != "" {
			out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateTitle(v.Title) })
		}
		if len(v.Columns) > 0 {
			out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateColumns(v.Columns) })
		}
		if v.Filter != nil {
			out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateFilter(v.Filter) })
		}
		if doc.SortBy != nil {
			out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateSortBy(v.SortBy) })
		}
		if doc.GroupBy != nil {
			out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateGroupBy(v.GroupBy), nil })
		}
	}

	flags := cmd.Flags()
	if flags.Changed("title") {
		title := e.title
		out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateTitle(title) })
	}
	if flags.Changed("columns") {
		keys := splitList(e.columns)
		out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateColumns(keys) })
	}
	if flags.Changed("filter") {
		var doc filter.Document
		if err := readJSON(e.filterFile, &doc); err != nil {
			return nil, err
		}
		out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateFilter(&doc) })
	}
	if flags.Changed("sort") {
		spec, err := parseSort(e.sort)
		if err != nil {
			return nil, err
		}
		out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateSortBy(spec) })
	}
	if flags.Changed("group") {
		group := e.group
		out = append(out, func(c catalog.Catalog) (catalog.Catalog, error) { return c.UpdateGroupBy(group), nil })
	}
	return out, nil
}

// apply runs transitions in order, stopping at the first error.
func apply(c catalog.Catalog, ts []catalog.Transition) (catalog.Catalog, error) {
	for _, t := range ts {
		next, err := t(c)
		if err != nil {
			return c, err
		}
		c = next
	}
	return c, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid view id %q", s)
	}
	return id, nil
}

// parseSort parses "key[:dir],..." with asc as the default direction.
func parseSort(s string) (model.SortSpec, error) {
	spec := model.SortSpec{}
	for _, part := range splitList(s) {
		key, dir, found := strings.Cut(part, ":")
		sb := model.SortBy{Key: strings.TrimSpace(key), Direction: model.Asc}
		if found {
			sb.Direction = model.Direction(strings.ToLower(strings.TrimSpace(dir)))
		}
		if sb.Key == "" {
			return nil, fmt.Errorf("empty sort key in %q", s)
		}
		if !sb.Direction.Valid() {
			return nil, fmt.Errorf("%w: %q", catalog.ErrInvalidDirection, dir)
		}
		spec = append(spec, sb)
	}
	return spec, nil
}

func formatSort(spec model.SortSpec) string {
	parts := make([]string, len(spec))
	for i, sb := range spec {
		parts[i] = sb.Key + ":" + string(sb.Direction)
	}
	return strings.Join(parts, ",")
}

func filterSummary(doc *filter.Document) string {
	if doc == nil {
		return ""
	}
	c, err := filter.Deserialize(doc)
	if err != nil {
		return "unreadable"
	}
	n := 0
	filter.Walk(c, func(cl filter.Clause) bool {
		if _, ok := cl.(*filter.Leaf); ok {
			n++
		}
		return true
	})
	switch n {
	case 0:
		return ""
	case 1:
		return "1 condition"
	}
	return strconv.Itoa(n) + " conditions"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}
