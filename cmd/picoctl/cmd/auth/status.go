package auth

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/internal/config"
	"github.com/picobrain/console/pkg/authz"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status and effective permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		session, err := cfg.Provider.Session()
		if err != nil {
			return err
		}
		creds, ok := session.Credential()
		if !ok {
			return fmt.Errorf("not logged in")
		}

		pterm.DefaultSection.Println("Authentication Status")
		pterm.Info.Printf("Logged in with token expiring at: %s\n", creds.ExpiresAt.Format(time.RFC1123))

		user, err := cfg.Provider.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		pterm.Info.Printf("User: %s  Role: %s\n", user.Username, user.Role)

		evaluator, err := cfg.Provider.Evaluator()
		if err != nil {
			return err
		}
		identity := authz.Identity{Role: user.Role, Privileged: user.IsSuperuser}

		pterm.DefaultSection.Println("Effective Permissions")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RESOURCE\tACTIONS")
		for _, resource := range []string{
			authz.ResourceClinics,
			authz.ResourceEmployees,
			authz.ResourceClients,
			authz.ResourceUsers,
		} {
			var allowed []string
			for _, action := range []string{
				authz.ActionView,
				authz.ActionCreate,
				authz.ActionEdit,
				authz.ActionDelete,
				authz.ActionExport,
			} {
				if evaluator.Can(identity, resource, action) {
					allowed = append(allowed, action)
				}
			}
			actions := "-"
			if len(allowed) > 0 {
				actions = strings.Join(allowed, ", ")
			}
			fmt.Fprintf(w, "%s\t%s\n", resource, actions)
		}
		w.Flush()

		return nil
	},
}
