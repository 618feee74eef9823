package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procodebh/crm-console/database"
	"github.com/procodebh/crm-console/database/model"
	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/session"
)

func TestMain(m *testing.M) {
	if err := database.InitDB(":memory:"); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = database.CloseDB()
	os.Exit(code)
}

type route struct {
	status int
	reply  string
}

// fakeBackend answers by "METHOD path" and records the JSON bodies it got.
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]route
	bodies map[string]map[string]any
	auth   map[string]string
}

func newFakeBackend(t *testing.T, routes map[string]route) (*fakeBackend, *gateway.Client) {
	t.Helper()
	fb := &fakeBackend{routes: routes, bodies: map[string]map[string]any{}, auth: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		fb.mu.Lock()
		fb.bodies[key] = body
		fb.auth[key] = r.Header.Get("Authorization")
		fb.mu.Unlock()

		rt, ok := fb.routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"not found"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		_, _ = io.WriteString(w, rt.reply)
	}))
	t.Cleanup(srv.Close)
	return fb, gateway.NewClient(gateway.Options{BaseURL: srv.URL + "/api"})
}

func (fb *fakeBackend) body(key string) map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[key]
}

func (fb *fakeBackend) authOf(key string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.auth[key]
}

func (fb *fakeBackend) calls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.bodies)
}

var meta = RequestMeta{IP: "10.0.0.1", UserAgent: "test"}

func auditCount(t *testing.T, action model.AuditAction) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.GetDB().Model(&model.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func TestLoginVerifiedStoresPrincipal(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]route{
		"POST /api/login": {http.StatusOK, `{"message":"Welcome back","data":{"isVarified":true,"token":"T1","user":{"_id":"u1","name":"Asha","email":"asha@procode.in","role":"admin"}}}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	m.Initialize()
	before := auditCount(t, model.AuditLogin)

	svc := AuthService{}
	out, err := svc.Login(context.Background(), client, m, "  asha@procode.in ", "pw", meta)
	require.NoError(t, err)

	assert.True(t, out.Verified)
	assert.Equal(t, "Welcome back", out.Message)
	assert.Equal(t, session.DashboardPath, out.Redirect)
	assert.Equal(t, "asha@procode.in", fb.body("POST /api/login")["email"])

	p, ok := m.Principal()
	require.True(t, ok)
	assert.Equal(t, session.RoleAdmin, p.Role)
	assert.Equal(t, "T1", m.Token())
	assert.Equal(t, session.DashboardPath, m.AllowedTabs()[0].Path)
	assert.Equal(t, before+1, auditCount(t, model.AuditLogin))
}

func TestLoginUnverifiedKeepsPendingEmail(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"POST /api/login": {http.StatusOK, `{"data":{"isVarified":false,"email":"otp@procode.in"}}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	m.Initialize()

	svc := AuthService{}
	out, err := svc.Login(context.Background(), client, m, "asha@procode.in", "pw", meta)
	require.NoError(t, err)

	assert.False(t, out.Verified)
	assert.Equal(t, "OTP sent to your email", out.Message)
	assert.Equal(t, session.OTPPath, out.Redirect)
	assert.Equal(t, "otp@procode.in", m.PendingEmail())
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Token())
}

func TestLoginFallsBackToTypedEmail(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"POST /api/login": {http.StatusOK, `{"message":"Check your inbox","data":{"isVarified":false}}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	svc := AuthService{}
	out, err := svc.Login(context.Background(), client, m, "asha@procode.in", "pw", meta)
	require.NoError(t, err)
	assert.Equal(t, "Check your inbox", out.Message)
	assert.Equal(t, "asha@procode.in", m.PendingEmail())
}

func TestLoginFailures(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"POST /api/login": {http.StatusUnauthorized, `{"message":"Invalid credentials"}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	svc := AuthService{}
	before := auditCount(t, model.AuditLoginFailed)

	_, err := svc.Login(context.Background(), client, m, "", "pw", meta)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Please enter email and password", ErrorMessage(err, "x"))

	_, err = svc.Login(context.Background(), client, m, "asha@procode.in", "bad", meta)
	require.Error(t, err)
	assert.True(t, gateway.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, before+1, auditCount(t, model.AuditLoginFailed))
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	_, client := newFakeBackend(t, map[string]route{
		"POST /api/login": {http.StatusOK, `{"data":{"isVarified":true,"token":"T","user":{"_id":"u9","name":"Tina","role":"teacher"}}}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	svc := AuthService{}
	_, err := svc.Login(context.Background(), client, m, "tina@procode.in", "pw", meta)
	assert.ErrorIs(t, err, session.ErrUnknownRole)
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Token())
}

func TestVerifyOTP(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]route{
		"POST /api/verify-otp": {http.StatusOK, `{"data":{"token":"T2","user":{"_id":"u2","name":"Ravi","email":"ravi@procode.in","role":"hr"}}}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	m.Initialize()
	svc := AuthService{}

	_, err := svc.VerifyOTP(context.Background(), client, m, "123456", meta)
	assert.ErrorIs(t, err, ErrOTPExpired)

	require.NoError(t, m.SetPendingEmail("ravi@procode.in"))
	_, err = svc.VerifyOTP(context.Background(), client, m, " ", meta)
	assert.True(t, IsValidation(err))

	out, err := svc.VerifyOTP(context.Background(), client, m, "123456", meta)
	require.NoError(t, err)
	assert.Equal(t, "OTP verified", out.Message)
	assert.Equal(t, session.DashboardPath, out.Redirect)
	assert.Equal(t, map[string]any{"email": "ravi@procode.in", "otp": "123456"}, fb.body("POST /api/verify-otp"))

	assert.Equal(t, session.RoleHR, m.Role())
	assert.Equal(t, "", m.PendingEmail())
	assert.Equal(t, "T2", m.Token())
}

func TestCancelOTP(t *testing.T) {
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	require.NoError(t, m.SetPendingEmail("ravi@procode.in"))
	svc := AuthService{}
	require.NoError(t, svc.CancelOTP(m))
	assert.Equal(t, "", m.PendingEmail())
}

func TestLogoutClearsSessionEvenWhenBackendFails(t *testing.T) {
	fb, client := newFakeBackend(t, map[string]route{
		"POST /api/logout": {http.StatusInternalServerError, `{}`},
	})
	m := session.NewManager(session.NewMemoryProvider().Open("sid"))
	require.NoError(t, m.SetPrincipal(session.Principal{ID: "u1", Name: "Asha", Role: session.RoleAdmin}, "T1"))

	svc := AuthService{}
	backend := NewBackend(client)
	require.NoError(t, svc.Logout(context.Background(), backend.For(m), m, meta))

	assert.Equal(t, "Bearer T1", fb.authOf("POST /api/logout"))
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Token())
}
