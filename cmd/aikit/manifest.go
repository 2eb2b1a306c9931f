package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/go-kratos/aikit"
	"github.com/spf13/cobra"
)

var manifestGroups []string

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the JSON capability manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCatalogApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		catalog, err := a.engine.Catalog(a.context)
		if err != nil {
			return err
		}
		if len(manifestGroups) > 0 {
			if catalog, err = catalog.Resolve(manifestGroups); err != nil {
				return err
			}
		}
		manifest, err := catalog.Manifest()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), manifest)
		return nil
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the available capability groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newCatalogApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		catalog, err := a.engine.Catalog(a.context)
		if err != nil {
			return err
		}
		return printGroups(cmd, catalog)
	},
}

func printGroups(cmd *cobra.Command, catalog *aikit.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCAPABILITIES")
	for _, g := range catalog.Groups() {
		fmt.Fprintf(w, "%s\t%s\t%d\n", g.ID, g.Name, g.Len())
	}
	return w.Flush()
}

func init() {
	manifestCmd.Flags().StringSliceVarP(&manifestGroups, "groups", "g", nil, "Restrict the manifest to the given groups")
}

// newCatalogApp builds an app that only lists capabilities.
func newCatalogApp(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Engine.Orchestrate = false
	return newApp(cmd.Context(), cfg, logger)
}
