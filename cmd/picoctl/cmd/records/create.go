package records

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// readRecordData parses the --data flag as a JSON object; "-" reads it from
// stdin, "@file" from a file.
func readRecordData(data string) (map[string]any, error) {
	var raw []byte
	switch {
	case data == "":
		return nil, fmt.Errorf("--data is required")
	case data == "-":
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read data from stdin: %w", err)
		}
	case data[0] == '@':
		var err error
		raw, err = os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
	default:
		raw = []byte(data)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("data must be a JSON object: %w", err)
	}
	return fields, nil
}

func newCreateCmd[T any](spec collection[T]) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + spec.singular,
		Long: fmt.Sprintf(`Creates a %s from a JSON object passed via --data.
Use "-" to read the object from stdin or "@path" to read it from a file.`, spec.singular),
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

			record, err := v.dispatcher.Create(cmd.Context(), fields)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", spec.singular, err)
			}

			pterm.Success.Printf("Created %s %s\n", spec.singular, spec.rowKey(record))
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Record fields as a JSON object (or - / @file)")
	return cmd
}
