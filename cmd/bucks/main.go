package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/mybucks/cmd/bucks/ui"
	"github.com/redmonkez12/mybucks/internal/client"
)

func main() {
	if err := newRootCmd(&app{out: os.Stdout}).Execute(); err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bucks",
		Short:         "Track your money from the terminal",
		Long:          "Command-line client for the mybucks API. Set BUCKS_API_URL or --api to choose the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "api", envOr("BUCKS_API_URL", client.DefaultBaseURL), "API base URL")
	rootCmd.PersistentFlags().StringVar(&a.tokenPath, "token-file", "", "Where the login token is kept (default $XDG_CONFIG_HOME/mybucks/token)")

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE:  a.runSignup,
	}
	signupCmd.Flags().String("email", "", "Account email")
	signupCmd.Flags().String("password", "", "Account password (prompted when omitted)")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the token",
		Args:  cobra.NoArgs,
		RunE:  a.runLogin,
	}
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE:  a.runLogout,
	}

	addCmd := &cobra.Command{
		Use:   "add [price name...]",
		Short: "Record a transaction; negative prices are expenses",
		Example: `  bucks add --price 2500 --name salary
  bucks add -- -4.50 coffee with friends`,
		RunE: a.runAdd,
	}
	addCmd.Flags().Float64("price", 0, "Signed amount")
	addCmd.Flags().String("name", "", "What the money was for")
	addCmd.Flags().String("description", "", "Optional note")
	addCmd.Flags().String("at", "", "When it happened, e.g. 2026-03-01 or 2026-03-01T08:30:00Z (default now)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions with the balance of the page",
		Args:  cobra.NoArgs,
		RunE:  a.runList,
	}
	listCmd.Flags().String("sort", "latest", "latest, oldest, highest or lowest")
	listCmd.Flags().Int("limit", 0, "Page size (server default 100)")
	listCmd.Flags().Int("offset", 0, "Records to skip")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runDelete,
	}
	deleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show income, expenses and balance",
		Args:  cobra.NoArgs,
		RunE:  a.runBalance,
	}

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, addCmd, listCmd, deleteCmd, balanceCmd)
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
