package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runWhoami(cmd.Context(), d)
		},
	}

	return cmd
}

func runWhoami(ctx context.Context, d *deps) error {
	if err := d.enterRoute(ctx, routeguard.RouteDashboard); err != nil {
		return err
	}

	user := d.sess.CurrentUser()
	fmt.Fprintf(d.out, "User:  %s\n", user.Name)
	fmt.Fprintf(d.out, "Email: %s\n", user.Email)
	fmt.Fprintf(d.out, "ID:    %d\n", user.ID)

	if expiry, ok := tokenExpiry(d); ok {
		fmt.Fprintf(d.out, "Session expires: %s\n", expiry.Local().Format(time.RFC1123))
	}

	return nil
}

// tokenExpiry decodes the expiry claim out of the stored token. The token is
// opaque to this client by contract, so this is display-only best effort: the
// claims are read without verifying the signature and a token that doesn't
// parse is simply not reported on.
func tokenExpiry(d *deps) (time.Time, bool) {
	token, err := d.tokens.LoadToken(d.cfg.Host())
	if err != nil {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
