// Package cmd implements the tableviews command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/cli/internal/client"
	"github.com/telhawk-systems/tableviews/cli/pkg/output"
	"github.com/telhawk-systems/tableviews/common/config"
	"github.com/telhawk-systems/tableviews/common/logging"
	"github.com/telhawk-systems/tableviews/pkg/catalog"
	"github.com/telhawk-systems/tableviews/pkg/resource"
)

// app holds state shared by the subcommands of one invocation.
type app struct {
	configDir string
	profile   string
	output    string
	verbose   bool

	cfg    *config.CLIConfig
	logger *slog.Logger
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		output.Stdio().Error("%v", err)
		return err
	}
	return nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tableviews",
		Short: "Table views CLI",
		Long: `tableviews manages saved table views for the node dashboard.

List, create and edit views, change their order, and preview what a view
shows by applying it to records fetched from the node.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "config directory (default: $HOME/.tableviews)")
	rootCmd.PersistentFlags().StringVar(&a.profile, "profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", output.FormatTable, "output format: table, json")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(
		newConfigCmd(a),
		newViewsCmd(a),
		newApplyCmd(a),
		newFilterCmd(a),
		newSampleCmd(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if !output.ValidFormat(a.output) {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(level), "text").Logger

	cfg, err := config.LoadCLI(a.configDir)
	if err != nil {
		output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Warn("Could not load config: %v", err)
		cfg = config.DefaultCLI()
	}
	a.cfg = cfg
	return nil
}

func (a *app) printer(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func (a *app) json() bool {
	return a.output == output.FormatJSON
}

func (a *app) client() *client.Client {
	p := a.cfg.Resolve(a.profile)
	return client.New(p.ViewsURL, p.NodeURL, client.WithLogger(a.logger))
}

// manager loads the views of page into a fresh catalog.
func (a *app) manager(ctx context.Context, page string) (*catalog.Manager, error) {
	res, err := resource.Lookup(page)
	if err != nil {
		return nil, err
	}
	store := catalog.NewStore(catalog.New(res), catalog.WithLogger(a.logger))
	m := catalog.NewManager(store, a.client(), catalog.WithManagerLogger(a.logger))
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}
