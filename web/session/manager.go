package session

import (
	"strings"
	"sync"

	"github.com/procodebh/crm-console/logger"
	"go.uber.org/atomic"
)

// Manager is the session and authorization context of one browser session:
// who is logged in and what they may see. Absence of a principal is a normal
// state, never an error.
type Manager struct {
	storage Storage
	nav     []NavEntry

	mu        sync.RWMutex
	principal *Principal
	resolved  atomic.Bool
}

// NewManager creates an unresolved Manager over storage.
func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage, nav: NavTabItems}
}

// Storage returns the session record the Manager works on.
func (m *Manager) Storage() Storage {
	return m.storage
}

// Initialize loads the principal from the session record. A missing or
// malformed record leaves the context unauthenticated.
func (m *Manager) Initialize() {
	p := m.load()
	m.mu.Lock()
	m.principal = p
	m.mu.Unlock()
	m.resolved.Store(true)
}

// load reads the record and enforces that user and token live together.
func (m *Manager) load() *Principal {
	rawUser, hasUser := m.storage.Get(KeyUser)
	token, hasToken := m.storage.Get(KeyAccessToken)
	hasToken = hasToken && token != ""

	if !hasUser && !hasToken {
		return nil
	}
	if !hasUser || !hasToken {
		logger.Warning("session record holds a user without a token or a token without a user, discarding it")
		m.discard()
		return nil
	}

	p, err := decodePrincipal(rawUser)
	if err != nil {
		logger.Warning("malformed session user, treating as logged out: ", err)
		m.discard()
		return nil
	}
	return p
}

func (m *Manager) discard() {
	if err := m.storage.Apply(nil, KeyUser, KeyAccessToken); err != nil {
		logger.Warning("unable to discard session record: ", err)
	}
}

// Resolved reports whether Initialize has run.
func (m *Manager) Resolved() bool {
	return m.resolved.Load()
}

// Principal returns a copy of the current principal.
func (m *Manager) Principal() (Principal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.principal == nil {
		return Principal{}, false
	}
	return *m.principal, true
}

// Role returns the current principal's role, or "" when logged out.
func (m *Manager) Role() Role {
	p, ok := m.Principal()
	if !ok {
		return ""
	}
	return p.Role
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Principal()
	return ok
}

// Token reads the raw access token from the session record.
func (m *Manager) Token() string {
	return BearerToken(m.storage)()
}

// SetPrincipal stores p together with token and makes p current. Any
// pending OTP email is dropped in the same write.
func (m *Manager) SetPrincipal(p Principal, token string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return ErrInvalidPrincipal
	}
	if role, err := ParseRole(string(p.Role)); err == nil {
		p.Role = role
	}
	encoded, err := encodePrincipal(p)
	if err != nil {
		return err
	}
	err = m.storage.Apply(map[string]string{
		KeyUser:        encoded,
		KeyAccessToken: token,
	}, KeyLoginEmail)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.principal = &p
	m.mu.Unlock()
	m.resolved.Store(true)
	return nil
}

// AllowedTabs returns the sidebar entries visible to the current principal.
// It is empty, never nil, when nobody is logged in.
func (m *Manager) AllowedTabs() []NavEntry {
	return FilterTabs(m.nav, m.Role())
}

// Logout removes the principal, the token and the pending OTP email in one
// write. It does not redirect.
func (m *Manager) Logout() error {
	err := m.storage.Apply(nil, KeyUser, KeyAccessToken, KeyLoginEmail)

	m.mu.Lock()
	m.principal = nil
	m.mu.Unlock()
	m.resolved.Store(true)
	return err
}

// Watch keeps the Manager in step with changes made to the session record
// by other contexts, e.g. a logout in another tab. onChange, when not nil,
// receives the principal after each change (nil when logged out).
func (m *Manager) Watch(onChange func(p *Principal)) (stop func()) {
	return m.storage.Subscribe(func() {
		p := m.load()
		m.mu.Lock()
		m.principal = p
		m.mu.Unlock()
		m.resolved.Store(true)

		if onChange != nil {
			if p != nil {
				cp := *p
				onChange(&cp)
				return
			}
			onChange(nil)
		}
	})
}

func (m *Manager) PendingEmail() string {
	email, _ := m.storage.Get(KeyLoginEmail)
	return email
}

func (m *Manager) SetPendingEmail(email string) error {
	return m.storage.Apply(map[string]string{KeyLoginEmail: email})
}

func (m *Manager) ClearPendingEmail() error {
	return m.storage.Apply(nil, KeyLoginEmail)
}
