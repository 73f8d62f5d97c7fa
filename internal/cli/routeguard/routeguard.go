// Package routeguard decides where a screen transition should land given the
// current session state. It is a pure function of its inputs so the redirect
// rule can be tested without any rendering or command plumbing around it.
package routeguard

import (
	"github.com/expenzeus/expenzeus/internal/cli/session"
)

// Route identifies a screen of the original application. CLI commands declare
// which screen they correspond to.
type Route string

const (
	RouteLogin        Route = "login"
	RouteRegister     Route = "register"
	RouteDashboard    Route = "dashboard"
	RouteExpenseModal Route = "expense-modal"
)

// Protected reports whether the route requires an authenticated session.
// The register screen is deliberately outside the protected group: an
// authenticated user opening it is left alone.
func (r Route) Protected() bool {
	return r == RouteDashboard || r == RouteExpenseModal
}

// Evaluate returns the route to redirect to, if any. The rule is
// invariant-restoring, not one-shot: callers re-evaluate it after every
// session transition, so a screen cannot stay in a state the rule forbids.
//
// While the session is still bootstrapping no redirect is issued; callers
// wait for the state to settle first.
func Evaluate(state session.State, route Route) (Route, bool) {
	switch {
	case state == session.StateBootstrapping:
		return "", false
	case state == session.StateUnauthenticated && route.Protected():
		return RouteLogin, true
	case state == session.StateAuthenticated && route == RouteLogin:
		return RouteDashboard, true
	default:
		return "", false
	}
}
