package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func writeCSV[T any](w io.Writer, spec collection[T], rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(spec.headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(spec.render(row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func newExportCmd[T any](spec collection[T]) *cobra.Command {
	var (
		query  queryFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export " + spec.name + " to CSV",
		Long: fmt.Sprintf(`Exports the current page of %s as CSV, honoring the same search,
filter and sort flags as list.`, spec.name),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openView(cmd, spec)
			if err != nil {
				return err
			}
			defer v.close()

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				v.exportOut = f
			}

			snap, err := runQuery(cmd.Context(), v, &query)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", spec.name, err)
			}

			if err := v.dispatcher.Export(cmd.Context()); err != nil {
				return err
			}

			if output != "" {
				pterm.Success.Printf("Exported %d %s to %s\n", len(snap.Rows), spec.name, output)
			}
			return nil
		},
	}

	query.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to a file instead of stdout")
	return cmd
}
