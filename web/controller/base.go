// Package controller provides the console's HTTP handlers: the login and OTP
// flow, and one controller per screen behind the route guard.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/locale"
	"github.com/procodebh/crm-console/web/middleware"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

// BaseController gives screen controllers a backend client bound to the
// caller's session.
type BaseController struct {
	backend *service.Backend
}

// api returns the backend client carrying the request's bearer token.
func (a *BaseController) api(c *gin.Context) *gateway.Client {
	return a.backend.For(session.Current(c))
}

// guard registers handlers for path behind the route table's roles.
func guard(path string, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	return append([]gin.HandlerFunc{middleware.RouteGuard(path)}, handlers...)
}

// fail reports a backend or validation error to the caller. Form pages get
// a toast and a redirect; AJAX callers get JSON.
func (a *BaseController) fail(c *gin.Context, err error, fallbackKey, back string) {
	msg := service.ErrorMessage(err, I18nWeb(c, fallbackKey))
	if !service.IsValidation(err) {
		logger.Warningf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	if isAjax(c) {
		status := http.StatusBadRequest
		if gateway.IsUnauthorized(err) {
			status = http.StatusUnauthorized
		}
		pureJsonMsg(c, status, false, msg)
		return
	}
	session.AddFlash(c, session.FlashError, msg)
	c.Redirect(http.StatusSeeOther, back)
}

// done reports success the same way fail reports errors.
func (a *BaseController) done(c *gin.Context, msg, next string) {
	if isAjax(c) {
		pureJsonMsg(c, http.StatusOK, true, msg)
		return
	}
	session.AddFlash(c, session.FlashSuccess, msg)
	c.Redirect(http.StatusSeeOther, next)
}

// loadFailed toasts a list that could not be fetched; the page still renders.
func (a *BaseController) loadFailed(c *gin.Context, err error) {
	logger.Warningf("%s: %v", c.Request.URL.Path, err)
	session.AddFlash(c, session.FlashError, service.ErrorMessage(err, I18nWeb(c, "toasts.loadFailed")))
}

// I18nWeb translates key for the request's language.
func I18nWeb(c *gin.Context, key string, params ...string) string {
	return locale.T(c, key, params...)
}
