package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runLogout(cmd.Context(), d)
		},
	}

	return cmd
}

func runLogout(ctx context.Context, d *deps) error {
	// Sign-out is idempotent, so no guard check: signing out while already
	// signed out is fine.
	if err := d.sess.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	fmt.Fprintln(d.out, "✓ Signed out.")
	return nil
}
