package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the Expenzeus API",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), d, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set EXPENZEUS_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set EXPENZEUS_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, d *deps, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("EXPENZEUS_EMAIL")
	}
	if password == "" {
		password = os.Getenv("EXPENZEUS_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or EXPENZEUS_EMAIL env var)")
	}

	// The guard bounces an already-authenticated session off the login screen
	if err := d.enterRoute(ctx, routeguard.RouteLogin); err != nil {
		if errors.Is(err, errAlreadySignedIn) {
			user := d.sess.CurrentUser()
			fmt.Fprintf(d.out, "Already signed in as %s (%s)\n", user.Name, user.Email)
			fmt.Fprintln(d.out, "Run 'expenzeus logout' first to switch accounts.")
			return nil
		}
		return err
	}

	if password == "" {
		pw, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		password = pw
	}

	fmt.Fprintf(d.out, "Logging in to %s...\n", d.cfg.Host())

	if err := d.sess.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	user := d.sess.CurrentUser()
	fmt.Fprintln(d.out, "✓ Login successful!")
	fmt.Fprintf(d.out, "  User: %s (%s)\n", user.Name, user.Email)

	return nil
}
