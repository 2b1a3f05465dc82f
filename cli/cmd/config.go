package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/tableviews/cli/pkg/output"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI profiles",
	}

	var viewsURL, nodeURL string
	setProfileCmd := &cobra.Command{
		Use:   "set-profile <name>",
		Short: "Create or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.SetProfile(args[0], viewsURL, nodeURL); err != nil {
				return err
			}
			a.printer(cmd).Success("Profile '%s' saved to %s", args[0], a.cfg.Path())
			return nil
		},
	}
	setProfileCmd.Flags().StringVar(&viewsURL, "views-url", "", "view store URL")
	setProfileCmd.Flags().StringVar(&nodeURL, "node-url", "", "node API URL")

	useCmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Use(args[0]); err != nil {
				return err
			}
			a.printer(cmd).Success("Now using profile '%s'", args[0])
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show profiles and resolved endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer(cmd)
			if a.json() {
				return p.JSON(a.cfg)
			}
			tbl := output.NewTable([]string{"", "Profile", "Views URL", "Node URL"})
			names := a.cfg.ProfileNames()
			if len(names) == 0 {
				names = []string{a.cfg.CurrentProfile}
			}
			for _, name := range names {
				marker := ""
				if name == a.cfg.CurrentProfile {
					marker = "*"
				}
				r := a.cfg.Resolve(name)
				tbl.AddRow([]string{marker, name, r.ViewsURL, r.NodeURL})
			}
			tbl.Render(p.Out)
			return nil
		},
	}

	configCmd.AddCommand(setProfileCmd, useCmd, showCmd)
	return configCmd
}
