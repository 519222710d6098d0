package cli

import (
	"fmt"

	"github.com/dchest/uniuri"
	"github.com/spf13/cobra"
)

// genAdminKeyCmd represents the gen-admin-key command
var genAdminKeyCmd = &cobra.Command{
	Use:   "gen-admin-key",
	Short: "Generate a random admin API key",
	Long: `Generate a cryptographically random admin API key suitable for the
ADMIN_API_KEY environment variable or the auth.admin_key config setting.`,
	Run: func(cmd *cobra.Command, args []string) {
		length, _ := cmd.Flags().GetInt("length")
		fmt.Println(uniuri.NewLen(length))
	},
}

func init() {
	rootCmd.AddCommand(genAdminKeyCmd)

	genAdminKeyCmd.Flags().IntP("length", "n", 48, "Key length in characters")
}
