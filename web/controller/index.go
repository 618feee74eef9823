package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/middleware"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// OTPForm is the OTP verification form.
type OTPForm struct {
	OTP string `json:"otp" form:"otp"`
}

// IndexController handles the login, OTP, logout and unauthorized pages.
type IndexController struct {
	BaseController

	authService service.AuthService
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup, backend *service.Backend) *IndexController {
	a := &IndexController{BaseController: BaseController{backend: backend}}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	guest := middleware.GuestOnly(session.DashboardPath)

	g.GET(session.LoginPath, guest, a.index)
	g.POST(session.LoginPath, guest, middleware.RateLimitMiddleware(middleware.LoginRateLimitConfig("login")), a.login)
	g.GET(session.OTPPath, guest, a.otpPage)
	g.POST(session.OTPPath, guest, middleware.RateLimitMiddleware(middleware.LoginRateLimitConfig("otp")), a.verifyOTP)
	g.GET(session.OTPPath+"/cancel", a.cancelOTP)
	g.POST("/logout", a.logout)
	g.GET(session.UnauthorizedPath, a.unauthorized)
}

// index shows the login form.
func (a *IndexController) index(c *gin.Context) {
	html(c, "login.html", "pages.login.title", gin.H{
		"from": c.Query("from"),
	})
}

func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.login.failed", session.LoginPath)
		return
	}

	m := session.Current(c)
	out, err := a.authService.Login(c.Request.Context(), a.backend.Anonymous(), m, form.Email, form.Password, requestMeta(c))
	if err != nil {
		a.loginFailed(c, err, "pages.login.failed", session.LoginPath)
		return
	}
	if out.Verified {
		logger.Infof("%s logged in, IP: %s", out.Email, c.ClientIP())
	}
	a.done(c, out.Message, out.Redirect)
}

func (a *IndexController) otpPage(c *gin.Context) {
	email := session.Current(c).PendingEmail()
	if email == "" {
		session.AddFlash(c, session.FlashError, I18nWeb(c, "pages.otp.expired"))
		c.Redirect(http.StatusTemporaryRedirect, session.LoginPath)
		return
	}
	html(c, "otp.html", "pages.otp.title", gin.H{
		"email": email,
	})
}

func (a *IndexController) verifyOTP(c *gin.Context) {
	var form OTPForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.otp.failed", session.OTPPath)
		return
	}

	m := session.Current(c)
	out, err := a.authService.VerifyOTP(c.Request.Context(), a.backend.Anonymous(), m, form.OTP, requestMeta(c))
	if errors.Is(err, service.ErrOTPExpired) {
		a.fail(c, err, "pages.otp.expired", session.LoginPath)
		return
	}
	if err != nil {
		a.loginFailed(c, err, "pages.otp.failed", session.OTPPath)
		return
	}
	logger.Infof("%s verified OTP, IP: %s", out.Email, c.ClientIP())
	a.done(c, out.Message, out.Redirect)
}

// loginFailed shows the error text itself, which carries the backend message
// or the transport failure.
func (a *IndexController) loginFailed(c *gin.Context, err error, fallbackKey, back string) {
	msg := err.Error()
	if msg == "" {
		msg = I18nWeb(c, fallbackKey)
	}
	if isAjax(c) {
		pureJsonMsg(c, http.StatusOK, false, msg)
		return
	}
	session.AddFlash(c, session.FlashError, msg)
	c.Redirect(http.StatusSeeOther, back)
}

func (a *IndexController) cancelOTP(c *gin.Context) {
	if err := a.authService.CancelOTP(session.Current(c)); err != nil {
		logger.Warning("Unable to clear the pending login:", err)
	}
	c.Redirect(http.StatusTemporaryRedirect, session.LoginPath)
}

// logout clears the session and returns to the login page.
func (a *IndexController) logout(c *gin.Context) {
	m := session.Current(c)
	if err := a.authService.Logout(c.Request.Context(), a.backend.For(m), m, requestMeta(c)); err != nil {
		logger.Warning("Unable to clear session:", err)
	}
	a.done(c, I18nWeb(c, "toasts.loggedOut"), session.LoginPath)
}

func (a *IndexController) unauthorized(c *gin.Context) {
	html(c, "unauthorized.html", "pages.unauthorized.title", nil)
}
