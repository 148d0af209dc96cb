package records

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newListCmd[T any](spec collection[T]) *cobra.Command {
	var (
		query  queryFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + spec.name,
		Long:  fmt.Sprintf(`Lists %s with pagination, search, per-column filters and sorting.`, spec.name),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openView(cmd, spec)
			if err != nil {
				return err
			}
			defer v.close()

			snap, err := runQuery(cmd.Context(), v, &query)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", spec.name, err)
			}

			if asJSON {
				data, err := json.MarshalIndent(snap.Rows, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join(spec.headers, "\t"))
			for _, row := range snap.Rows {
				fmt.Fprintln(w, strings.Join(spec.render(row), "\t"))
			}
			w.Flush()

			pterm.Info.Printf("Page %d: %d of %d %s\n", snap.State.Page, len(snap.Rows), snap.Total, spec.name)
			return nil
		},
	}

	query.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON instead of a table")
	return cmd
}
