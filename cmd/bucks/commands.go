package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/mybucks/cmd/bucks/ui"
	"github.com/redmonkez12/mybucks/internal/client"
)

// app carries the state shared by every subcommand
type app struct {
	out       io.Writer
	baseURL   string
	tokenPath string
	tokens    *client.TokenStore
	api       *client.Client

	// confirm is swapped in tests
	confirm func(question string) (bool, error)
	prompt  func(email, password *string, confirm bool) error
}

func (a *app) init() error {
	if a.tokenPath == "" {
		path, err := client.DefaultTokenPath()
		if err != nil {
			return err
		}
		a.tokenPath = path
	}
	a.tokens = client.NewTokenStore(a.tokenPath)

	token, err := a.tokens.Load()
	if err != nil {
		return err
	}
	a.api = client.New(a.baseURL, token)

	if a.confirm == nil {
		a.confirm = ui.Confirm
	}
	if a.prompt == nil {
		a.prompt = ui.PromptCredentials
	}
	return nil
}

func (a *app) runSignup(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" || password == "" {
		if err := a.prompt(&email, &password, true); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if _, err := a.api.Signup(ctx, email, password); err != nil {
		return err
	}
	ui.PrintSuccess(a.out, "Account created for "+email)

	return a.login(ctx, email, password)
}

func (a *app) runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" || password == "" {
		if err := a.prompt(&email, &password, false); err != nil {
			return err
		}
	}
	return a.login(cmd.Context(), email, password)
}

func (a *app) login(ctx context.Context, email, password string) error {
	tokens, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(tokens.Token); err != nil {
		return err
	}
	ui.PrintLoggedIn(a.out, email, a.tokens.Path(), tokens.ExpiresAt)
	return nil
}

func (a *app) runLogout(cmd *cobra.Command, args []string) error {
	if err := a.tokens.Clear(); err != nil {
		return err
	}
	ui.PrintSuccess(a.out, "Logged out")
	return nil
}

func (a *app) runAdd(cmd *cobra.Command, args []string) error {
	price, _ := cmd.Flags().GetFloat64("price")
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	at, _ := cmd.Flags().GetString("at")

	if len(args) > 0 {
		p, n, err := parseEntry(args)
		if err != nil {
			return err
		}
		price, name = p, n
	} else if !cmd.Flags().Changed("price") {
		return errors.New("price is required: use --price or `bucks add -- <price> <name>`")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if at == "" {
		at = time.Now().UTC().Format(time.RFC3339)
	}

	created, err := a.api.CreateTransaction(cmd.Context(), client.TransactionRequest{
		Name:        name,
		Description: description,
		Price:       price,
		Datetime:    at,
	})
	if err != nil {
		return a.checkSession(err)
	}
	ui.PrintCreated(a.out, created)
	return nil
}

func (a *app) runList(cmd *cobra.Command, args []string) error {
	sort, _ := cmd.Flags().GetString("sort")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	result, err := a.api.ListTransactions(cmd.Context(), client.ListOptions{Sort: sort, Limit: limit, Offset: offset})
	if err != nil {
		return a.checkSession(err)
	}
	ui.RenderTransactions(a.out, result)
	return nil
}

func (a *app) runDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	id := args[0]

	if !yes {
		ok, err := a.confirm(fmt.Sprintf("Delete transaction %s?", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
	}

	result, err := a.api.DeleteTransaction(cmd.Context(), id)
	if err != nil {
		return a.checkSession(err)
	}
	ui.PrintSuccess(a.out, fmt.Sprintf("Deleted %s %s", result.Deleted.Name, ui.FormatAmount(result.Deleted.Price)))
	return nil
}

func (a *app) runBalance(cmd *cobra.Command, args []string) error {
	summary, err := a.api.Summary(cmd.Context())
	if err != nil {
		return a.checkSession(err)
	}
	ui.RenderSummary(a.out, summary)
	return nil
}

// checkSession drops a token the server no longer accepts
func (a *app) checkSession(err error) error {
	if !client.IsUnauthorized(err) {
		return err
	}
	if clearErr := a.tokens.Clear(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return fmt.Errorf("session expired or invalid, run `bucks login`: %w", err)
}

// parseEntry reads "<price> <name...>", e.g. "-4.50 coffee with friends"
func parseEntry(args []string) (float64, string, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid price %q", args[0])
	}
	return price, strings.TrimSpace(strings.Join(args[1:], " ")), nil
}
