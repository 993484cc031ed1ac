package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/templates"
	"github.com/spf13/cobra"
)

func newTemplatesCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the device and software templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := templates.Default()
			list := reg.ListAll()
			if category != "" {
				c := models.Category(category)
				if !c.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
				list = reg.ByCategory(c)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tNAME\tVIDEO")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", t.ID, t.Category, t.Name, t.HasVideo())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "mobile, camera or software")
	return cmd
}
