package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// PromptCredentials asks for whichever of email and password is still empty.
// confirm adds a repeat-password field for signup.
func PromptCredentials(email, password *string, confirm bool) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(email).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("email is required")
				}
				return nil
			}))
	}

	var repeat string
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}))

		if confirm {
			fields = append(fields, huh.NewInput().
				Title("Repeat password").
				EchoMode(huh.EchoModePassword).
				Value(&repeat).
				Validate(func(s string) error {
					if s != *password {
						return errors.New("passwords do not match")
					}
					return nil
				}))
		}
	}

	if len(fields) == 0 {
		return nil
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin())
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	*email = strings.TrimSpace(*email)
	return nil
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithTheme(huh.ThemeCatppuccin()).Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	return ok, nil
}
