package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatekeeperhq/gatekeeper/app"
	"github.com/gatekeeperhq/gatekeeper/config"
	"github.com/gatekeeperhq/gatekeeper/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gatekeeper server",
	Long: `Start the Gatekeeper server with the specified configuration.
This will start the HTTP server and make it available for client connections.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}

		// Flags take precedence over file and env settings.
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Log.Level = config.ParseLogLevel(level)
		}
		if format, _ := cmd.Flags().GetString("log-format"); format != "" {
			cfg.Log.Format = format
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.Log.Level = slog.LevelDebug
		}

		log.Configure(cfg.Log)

		application, err := app.NewApp(cfg)
		if err != nil {
			slog.Error("Failed to create application", "error", err)
			os.Exit(1)
		}

		if err := application.Serve(); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("config", "", "config file (default is ./config.yaml)")
	serveCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().String("log-format", "", "Log format (json, text)")
	serveCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging (sets log level to debug)")
}
