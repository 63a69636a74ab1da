package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/mybucks/docs" // Swagger docs (generated)
)

// @title           mybucks API
// @version         1.0
// @description     Personal finance tracker: sign up, log in and keep a ledger of signed transactions.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:4040
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "api",
		Short:        "mybucks REST API",
		Long:         "Serves the mybucks personal finance API. Configuration is read from the environment and an optional .env file.",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().Bool("status", false, "Print migration status instead of applying")

	rootCmd.AddCommand(serveCmd, migrateCmd)

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
