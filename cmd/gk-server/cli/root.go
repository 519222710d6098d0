package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gk-server",
	Short: "Gatekeeper token verification service",
	Long: `Gatekeeper issues opaque bearer tokens bound to a user identity and
role set, verifies tokens presented by downstream consumers and keeps an
audit trail of verifications.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
