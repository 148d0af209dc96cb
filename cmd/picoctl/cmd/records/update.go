package records

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newUpdateCmd[T any](spec collection[T]) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a " + spec.singular,
		Long: fmt.Sprintf(`Applies a partial update to a %s. Only the fields present in the
JSON object are changed.`, spec.singular),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := readRecordData(data)
			if err != nil {
				return err
			}

			v, err := openView(cmd, spec)
			if err != nil {
				return err
			}
			defer v.close()

			record, err := v.dispatcher.Edit(cmd.Context(), args[0], fields)
			if err != nil {
				return fmt.Errorf("failed to update %s %s: %w", spec.singular, args[0], err)
			}

			pterm.Success.Printf("Updated %s %s\n", spec.singular, spec.rowKey(record))
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Changed fields as a JSON object (or - / @file)")
	return cmd
}
