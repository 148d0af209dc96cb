package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from the picobrain server",
	Long: `Revokes the session on the server on a best-effort basis and always
removes the locally stored credential.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		authClient, err := cfg.Provider.AuthClient()
		if err != nil {
			return err
		}
		if err := authClient.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}

		fmt.Println("Logged out successfully")
		return nil
	},
}
