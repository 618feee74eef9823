// Package middleware holds the console's gin middleware: the route guard,
// login rate limiting, request metrics and the audit trail.
package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/metrics"
	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/session"
)

// Outcome is the result of a guard decision.
type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// Decision is what the guard does with a request. From is the location the
// caller asked for, kept on login redirects.
type Decision struct {
	Outcome  Outcome
	Location string
	From     string
}

// AuthState is what the guard knows about the caller.
type AuthState struct {
	// Resolved is true once the session context has been initialized; the
	// Principal is then authoritative.
	Resolved  bool
	Principal *session.Principal
	// Token is the raw access token of the session record.
	Token string
}

// StateOf snapshots m for Decide.
func StateOf(m *session.Manager) AuthState {
	state := AuthState{Resolved: m.Resolved(), Token: m.Token()}
	if p, ok := m.Principal(); ok {
		state.Principal = &p
	}
	return state
}

// Decide applies the access rule for a route allowing roles. An empty roles
// list admits any authenticated caller.
func Decide(state AuthState, requested string, roles []session.Role) Decision {
	authenticated := state.Token != ""
	if state.Resolved {
		authenticated = authenticated && state.Principal != nil
	}
	if !authenticated {
		return Decision{Outcome: RedirectLogin, Location: session.LoginPath, From: requested}
	}
	if len(roles) == 0 {
		return Decision{Outcome: Render}
	}

	// An unresolved context has no role, so it never passes a role check.
	var role session.Role
	if state.Resolved && state.Principal != nil {
		role = state.Principal.Role
	}
	if !session.HasRole(role, roles) {
		return Decision{Outcome: RedirectUnauthorized, Location: session.UnauthorizedPath}
	}
	return Decision{Outcome: Render}
}

const (
	// PrincipalKey holds the guarded request's *session.Principal.
	PrincipalKey = "principal"
	// FromKey holds the location captured on a login redirect.
	FromKey = "guard_from"
)

// Guard protects a route: unauthenticated callers go to the login page,
// callers without one of roles go to the unauthorized page.
func Guard(roles ...session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := session.Current(c)
		if !m.Resolved() {
			m.Initialize()
		}
		requested := c.Request.URL.RequestURI()
		d := Decide(StateOf(m), requested, roles)
		metrics.GuardDecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()

		switch d.Outcome {
		case Render:
			if p, ok := m.Principal(); ok {
				c.Set(PrincipalKey, &p)
			}
			c.Next()
		case RedirectLogin:
			c.Set(FromKey, d.From)
			if isAjax(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, entity.Msg{Msg: "Please log in again"})
				return
			}
			redirect(c, d.Location+"?from="+url.QueryEscape(d.From))
		case RedirectUnauthorized:
			logger.Infof("access to %s denied for role %q", requested, m.Role())
			c.Set(AuditDeniedKey, true)
			if isAjax(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, entity.Msg{Msg: "Access denied"})
				return
			}
			redirect(c, d.Location)
		}
	}
}

// RouteGuard guards path with the roles the route table assigns it.
func RouteGuard(path string) gin.HandlerFunc {
	return Guard(session.RolesFor(path)...)
}

// GuestOnly sends authenticated callers away from guest pages such as the
// login form.
func GuestOnly(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.IsLogin(c) {
			redirect(c, target)
			return
		}
		c.Next()
	}
}

func redirect(c *gin.Context, location string) {
	code := http.StatusTemporaryRedirect
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		code = http.StatusSeeOther
	}
	c.Redirect(code, location)
	c.Abort()
}

func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}
