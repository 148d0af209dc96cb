package records

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/internal/config"
	"github.com/picobrain/console/pkg/sdk"
)

func newGetCmd[T any](spec collection[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + spec.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())
			apiClient, err := cfg.Provider.SDKClient()
			if err != nil {
				return err
			}

			record, err := sdk.NewCollection[T](apiClient, spec.name).Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get %s %s: %w", spec.singular, args[0], err)
			}

			data, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
