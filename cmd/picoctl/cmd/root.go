package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/cmd/auth"
	"github.com/picobrain/console/cmd/picoctl/cmd/records"
	"github.com/picobrain/console/cmd/picoctl/internal/client"
	"github.com/picobrain/console/cmd/picoctl/internal/config"
)

var (
	serverURL      string
	nonInteractive bool
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "picoctl",
	Short: "picobrain admin console CLI",
	Long: `picoctl is the command-line interface for the picobrain server. Use it to
sign in and to browse, filter, export and mutate the record collections
(clinics, employees, clients, users) your role permits.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Check for PICOBRAIN_NON_INTERACTIVE environment variable
		if os.Getenv("PICOBRAIN_NON_INTERACTIVE") == "1" {
			nonInteractive = true
		}
		if url := os.Getenv("PICOBRAIN_SERVER"); url != "" && !cmd.Flags().Changed("server") {
			serverURL = url
		}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if verbose {
			ptermLogger := pterm.DefaultLogger.WithLevel(pterm.LogLevelDebug)
			logger = slog.New(pterm.NewSlogHandler(ptermLogger))
		}

		cfg := &config.GlobalConfig{
			ServerURL:      serverURL,
			NonInteractive: nonInteractive,
			Logger:         logger,
			Provider:       client.NewProvider(serverURL, logger),
		}
		cmd.SetContext(config.InjectConfig(cmd.Context(), cfg))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "picobrain API server URL (also set via PICOBRAIN_SERVER)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via PICOBRAIN_NON_INTERACTIVE=1)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(auth.AuthCmd)
	for _, cmd := range records.Commands() {
		rootCmd.AddCommand(cmd)
	}
}
