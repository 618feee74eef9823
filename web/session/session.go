// Package session holds the console's session and authorization context:
// the logged-in principal, the role-filtered sidebar, and the per-browser
// session record those are persisted in.
package session

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CookieName is the name of the browser cookie carrying the session id.
	CookieName = "procode-console"

	sessionIDKey   = "SID"
	managerCtxKey  = "session_manager"
	providerCtxKey = "session_provider"
)

// Flash is a transient toast notice shown once on the next page.
type Flash struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

// Middleware makes provider available to Current for every request.
func Middleware(provider Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(providerCtxKey, provider)
		c.Next()
	}
}

// SessionID returns the caller's session id, issuing one on first use.
func SessionID(c *gin.Context) string {
	s := sessions.Default(c)
	if sid, ok := s.Get(sessionIDKey).(string); ok && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	s.Set(sessionIDKey, sid)
	_ = s.Save()
	return sid
}

// Current returns the request's Manager, creating and initializing it on
// first use.
func Current(c *gin.Context) *Manager {
	if v, ok := c.Get(managerCtxKey); ok {
		if m, ok := v.(*Manager); ok {
			return m
		}
	}
	provider := c.MustGet(providerCtxKey).(Provider)
	m := NewManager(provider.Open(SessionID(c)))
	m.Initialize()
	c.Set(managerCtxKey, m)
	return m
}

// Open returns a fresh, uninitialized Manager for the caller's session,
// independent of the one cached for the request.
func Open(c *gin.Context) *Manager {
	provider := c.MustGet(providerCtxKey).(Provider)
	return NewManager(provider.Open(SessionID(c)))
}

// GetLoginUser returns the logged-in principal or nil.
func GetLoginUser(c *gin.Context) *Principal {
	p, ok := Current(c).Principal()
	if !ok {
		return nil
	}
	return &p
}

func IsLogin(c *gin.Context) bool {
	return Current(c).IsAuthenticated()
}

// AddFlash queues a toast for the next rendered page.
func AddFlash(c *gin.Context, kind, text string) {
	s := sessions.Default(c)
	s.AddFlash(kind + "|" + text)
	_ = s.Save()
}

// Flashes pops the queued toasts.
func Flashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save()
	out := make([]Flash, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			continue
		}
		kind, text, found := strings.Cut(str, "|")
		if !found {
			kind, text = FlashSuccess, str
		}
		out = append(out, Flash{Type: kind, Text: text})
	}
	return out
}
