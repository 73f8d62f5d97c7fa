package commands

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new Expenzeus account",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runRegister(cmd.Context(), d, name, email, password)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")

	return cmd
}

func runRegister(ctx context.Context, d *deps, name, email, password string) error {
	if name == "" {
		return fmt.Errorf("name is required (use --name flag)")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("a valid email address is required (use --email flag)")
	}

	// The register screen is reachable regardless of session state; the guard
	// is still consulted so bootstrap runs before any network work.
	if err := d.enterRoute(ctx, routeguard.RouteRegister); err != nil {
		return err
	}

	prompted := password == ""
	if prompted {
		pw, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		password = pw
	}

	if err := validatePassword(password); err != nil {
		return err
	}

	if prompted {
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != password {
			return fmt.Errorf("passwords do not match")
		}
	}

	if err := d.sess.SignUp(ctx, name, email, password); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	user := d.sess.CurrentUser()
	fmt.Fprintln(d.out, "✓ Account created successfully!")
	fmt.Fprintf(d.out, "  User: %s (%s)\n", user.Name, user.Email)

	return nil
}

// validatePassword enforces the account password policy
func validatePassword(password string) error {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case len(password) < 8:
		return fmt.Errorf("password must be at least 8 characters")
	case !hasUpper:
		return fmt.Errorf("password must contain an uppercase letter")
	case !hasLower:
		return fmt.Errorf("password must contain a lowercase letter")
	case !hasDigit:
		return fmt.Errorf("password must contain a number")
	case !hasSymbol:
		return fmt.Errorf("password must contain a symbol")
	}
	return nil
}
