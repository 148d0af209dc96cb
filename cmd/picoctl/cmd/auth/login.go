package auth

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/internal/config"
)

var (
	username string
	password string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the picobrain server",
	Long: `Authenticates against the picobrain server with a username and password
and stores the bearer token under ~/.picobrain.

Credentials can be passed via flags, via the PICOBRAIN_USERNAME and
PICOBRAIN_PASSWORD environment variables, or entered interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		if username == "" {
			username = os.Getenv("PICOBRAIN_USERNAME")
		}
		if password == "" {
			password = os.Getenv("PICOBRAIN_PASSWORD")
		}

		if cfg.NonInteractive && (username == "" || password == "") {
			return fmt.Errorf("username and password are required in non-interactive mode")
		}

		var err error
		if username == "" {
			username, err = pterm.DefaultInteractiveTextInput.Show("Username")
			if err != nil {
				return err
			}
		}
		if password == "" {
			password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
			if err != nil {
				return err
			}
		}

		authClient, err := cfg.Provider.AuthClient()
		if err != nil {
			return err
		}

		user, err := authClient.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}

		pterm.Success.Printf("Logged in as %s (role: %s)\n", user.Username, user.Role)
		if user.IsSuperuser {
			pterm.Info.Println("Superuser account: permission checks are bypassed.")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Username to authenticate with")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Password to authenticate with")
}
