package guard

// Package guard gates access to protected views based on the session
// state and an optional set of permitted roles. The decision logic is a
// pure function; a net/http middleware form is provided for
// server-rendered consumers.

import (
	"net/http"

	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
)

// Verdict is the outcome of evaluating a guard against the session state.
type Verdict int

const (
	// VerdictPending means the session is still resolving; render a
	// neutral loading indicator and decide nothing yet.
	VerdictPending Verdict = iota
	// VerdictAllow means the protected content may render.
	VerdictAllow
	// VerdictRedirect means render nothing and navigate to Target.
	VerdictRedirect
)

// Decision pairs a verdict with the redirect target for VerdictRedirect.
type Decision struct {
	Verdict Verdict
	Target  string
}

// Evaluate applies the guard policy to a state snapshot.
//
// While the state is loading the decision is always Pending: protected
// content must never flash before the session resolves, and redirecting
// against a not-yet-resolved session would loop. Once resolved, an
// unauthenticated caller is redirected to redirectTo (the login page when
// empty), and an authenticated caller whose role is outside the permitted
// set is redirected to the unauthorized page. An empty allowed set admits
// every authenticated role.
func Evaluate(state domainauth.State, allowed []domainauth.Role, redirectTo string) Decision {
	if state.IsLoading {
		return Decision{Verdict: VerdictPending}
	}

	if !state.IsAuthenticated {
		if redirectTo == "" {
			redirectTo = domainauth.PathLogin
		}
		return Decision{Verdict: VerdictRedirect, Target: redirectTo}
	}

	if len(allowed) > 0 && !roleAllowed(state.User.Role, allowed) {
		return Decision{Verdict: VerdictRedirect, Target: domainauth.PathUnauthorized}
	}

	return Decision{Verdict: VerdictAllow}
}

func roleAllowed(role domainauth.Role, allowed []domainauth.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// StateSource supplies the current session state. The session manager
// satisfies this.
type StateSource interface {
	State() domainauth.State
}

// Protect returns a middleware that applies the guard policy before the
// wrapped handler. Pending renders a neutral placeholder, redirects are
// 302s, and only Allow reaches the protected handler.
func Protect(states StateSource, allowed []domainauth.Role, redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Evaluate(states.State(), allowed, redirectTo)
			switch decision.Verdict {
			case VerdictPending:
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("Loading..."))
			case VerdictRedirect:
				http.Redirect(w, r, decision.Target, http.StatusFound)
			case VerdictAllow:
				next.ServeHTTP(w, r)
			}
		})
	}
}
