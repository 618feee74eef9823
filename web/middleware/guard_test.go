package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procodebh/crm-console/web/session"
)

func principal(role session.Role) *session.Principal {
	return &session.Principal{ID: "u1", Name: "Asha", Email: "asha@procode.in", Role: role}
}

func TestDecideAuthentication(t *testing.T) {
	cases := []struct {
		name  string
		state AuthState
		roles []session.Role
		want  Outcome
	}{
		{"no token unresolved", AuthState{}, nil, RedirectLogin},
		{"token only unresolved", AuthState{Token: "t"}, nil, Render},
		{"token only unresolved with roles", AuthState{Token: "t"}, []session.Role{session.RoleAdmin}, RedirectUnauthorized},
		{"resolved without principal", AuthState{Resolved: true, Token: "t"}, nil, RedirectLogin},
		{"principal without token", AuthState{Resolved: true, Principal: principal(session.RoleAdmin)}, nil, RedirectLogin},
		{"any authenticated", AuthState{Resolved: true, Principal: principal(session.RoleHR), Token: "t"}, nil, Render},
		{"allowed role", AuthState{Resolved: true, Principal: principal(session.RoleAdmin), Token: "t"}, []session.Role{session.RoleAdmin}, Render},
		{"role case differs", AuthState{Resolved: true, Principal: principal("ADMIN"), Token: "t"}, []session.Role{session.RoleAdmin}, Render},
		{"role not allowed", AuthState{Resolved: true, Principal: principal(session.RoleHR), Token: "t"}, []session.Role{session.RoleAdmin, session.RoleCounsellor}, RedirectUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.state, "/students", tc.roles)
			assert.Equal(t, tc.want, d.Outcome)
			switch d.Outcome {
			case RedirectLogin:
				assert.Equal(t, session.LoginPath, d.Location)
				assert.Equal(t, "/students", d.From)
			case RedirectUnauthorized:
				assert.Equal(t, session.UnauthorizedPath, d.Location)
			}
		})
	}
}

func TestDecideNeverRendersForForeignRole(t *testing.T) {
	candidates := append([]session.Role{"", "teacher"}, session.Roles...)
	for _, route := range session.RouteTable {
		if route.Public || len(route.Roles) == 0 {
			continue
		}
		for _, role := range candidates {
			for _, resolved := range []bool{true, false} {
				state := AuthState{Resolved: resolved, Token: "t"}
				if resolved {
					state.Principal = principal(role)
				}
				d := Decide(state, route.Path, route.Roles)
				if d.Outcome == Render {
					require.True(t, resolved, route.Path)
					assert.True(t, session.HasRole(role, route.Roles), "%s rendered for %q", route.Path, role)
				}
			}
		}
	}
}

func TestDecideRequiresToken(t *testing.T) {
	for _, route := range session.RouteTable {
		if route.Public {
			continue
		}
		state := AuthState{Resolved: true, Principal: principal(session.RoleAdmin)}
		assert.Equal(t, RedirectLogin, Decide(state, route.Path, route.Roles).Outcome, route.Path)
	}
}

func newGuardRouter(provider session.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(session.CookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(session.Middleware(provider))

	ok := func(c *gin.Context) {
		p, _ := c.Get(PrincipalKey)
		c.String(http.StatusOK, "hello %s", p.(*session.Principal).Name)
	}
	r.GET("/students", RouteGuard("/students"), ok)
	r.POST("/students/:id/delete", RouteGuard("/students/:id"), ok)
	r.GET("/dashboard", RouteGuard("/dashboard"), ok)
	r.GET("/as/:role", func(c *gin.Context) {
		err := session.Current(c).SetPrincipal(*principal(session.Role(c.Param("role"))), "tok")
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/logout", func(c *gin.Context) {
		if err := session.Open(c).Logout(); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r http.Handler, method, target string, cookies []*http.Cookie, ajax bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, r http.Handler, role session.Role) []*http.Cookie {
	t.Helper()
	w := serve(r, http.MethodGet, "/as/"+string(role), nil, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	r := newGuardRouter(session.NewMemoryProvider())

	w := serve(r, http.MethodGet, "/students?q=asha", nil, false)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/?from=%2Fstudents%3Fq%3Dasha", w.Header().Get("Location"))

	w = serve(r, http.MethodPost, "/students/7/delete", nil, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = serve(r, http.MethodGet, "/dashboard", nil, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestGuardRoles(t *testing.T) {
	r := newGuardRouter(session.NewMemoryProvider())

	admin := loginAs(t, r, session.RoleAdmin)
	w := serve(r, http.MethodGet, "/students", admin, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello Asha", w.Body.String())

	hr := loginAs(t, r, session.RoleHR)
	w = serve(r, http.MethodGet, "/students", hr, false)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, session.UnauthorizedPath, w.Header().Get("Location"))

	w = serve(r, http.MethodGet, "/students", hr, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodGet, "/dashboard", hr, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardSeesLogoutFromAnotherTab(t *testing.T) {
	provider := session.NewMemoryProvider()
	r := newGuardRouter(provider)
	admin := loginAs(t, r, session.RoleAdmin)

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/dashboard", admin, false).Code)

	require.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/logout", admin, false).Code)

	w := serve(r, http.MethodGet, "/dashboard", admin, false)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
}
