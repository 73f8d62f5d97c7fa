package commands

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/expenzeus/expenzeus/internal/cli/auth"
	"github.com/expenzeus/expenzeus/internal/cli/client"
	"github.com/expenzeus/expenzeus/internal/cli/config"
	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
	"github.com/expenzeus/expenzeus/internal/cli/session"
	"github.com/expenzeus/expenzeus/internal/logger"
)

// errAlreadySignedIn is an internal signal, not a failure: the guard decided
// the login screen should bounce to the dashboard.
var errAlreadySignedIn = errors.New("already signed in")

// deps bundles what every command needs. Production commands build it with
// newDeps; tests construct it directly around an in-process mock API.
type deps struct {
	cfg    *config.Config
	api    *client.Client
	sess   *session.Manager
	tokens auth.TokenStore
	out    io.Writer
}

func newDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	api := client.New(cfg.API.BaseURL, cfg.Host())
	sess := session.NewManager(api, auth.Default, cfg.Host(), logger.GetLogger())

	return &deps{
		cfg:    cfg,
		api:    api,
		sess:   sess,
		tokens: auth.Default,
		out:    os.Stdout,
	}, nil
}

// enterRoute bootstraps the session and applies the navigation guard for the
// screen this command corresponds to. The guard is re-applied on every
// command invocation, so state and screen can never stay inconsistent.
func (d *deps) enterRoute(ctx context.Context, route routeguard.Route) error {
	d.sess.Bootstrap(ctx)

	target, redirect := routeguard.Evaluate(d.sess.State(), route)
	if !redirect {
		return nil
	}

	switch target {
	case routeguard.RouteLogin:
		return auth.ErrNotAuthenticated
	case routeguard.RouteDashboard:
		return errAlreadySignedIn
	default:
		return nil
	}
}
