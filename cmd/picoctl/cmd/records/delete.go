package records

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/internal/config"
)

func newDeleteCmd[T any](spec collection[T]) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + spec.singular,
		Long: fmt.Sprintf(`Deletes a %s. Deletion is destructive and asks for confirmation
unless --yes is given.`, spec.singular),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())

			v, err := openView(cmd, spec)
			if err != nil {
				return err
			}
			defer v.close()

			pending, err := v.dispatcher.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !yes {
				if cfg.NonInteractive {
					v.dispatcher.Cancel(pending.ID)
					return fmt.Errorf("refusing to delete %s %s without --yes in non-interactive mode", spec.singular, args[0])
				}
				confirmed, err := pterm.DefaultInteractiveConfirm.
					WithDefaultText(fmt.Sprintf("Delete %s %s?", spec.singular, args[0])).
					Show()
				if err != nil {
					return err
				}
				if !confirmed {
					v.dispatcher.Cancel(pending.ID)
					pterm.Info.Println("Cancelled")
					return nil
				}
			}

			if err := v.dispatcher.Confirm(cmd.Context(), pending.ID); err != nil {
				return fmt.Errorf("failed to delete %s %s: %w", spec.singular, args[0], err)
			}

			pterm.Success.Printf("Deleted %s %s\n", spec.singular, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
