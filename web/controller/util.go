package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/config"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/common"
	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/locale"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

// BackendUpKey holds the last backend health probe result for templates.
const BackendUpKey = "backend_up"

// maxUploadSize bounds images and resumes relayed to the backend.
const maxUploadSize = 10 << 20

// requestMeta identifies the caller for the audit trail.
func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// jsonMsg sends a JSON response with a message and error status.
func jsonMsg(c *gin.Context, msg string, err error) {
	jsonMsgObj(c, msg, nil, err)
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

// jsonMsgObj sends a JSON response with a message, object, and error status.
func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		if msg != "" {
			m.Msg = msg
		}
	} else {
		m.Success = false
		m.Msg = service.ErrorMessage(err, msg)
		logger.Warning(msg+": ", err)
	}
	c.JSON(http.StatusOK, m)
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// html renders a page with the layout data every template expects: the
// principal, its sidebar tabs, queued toasts and the translate function.
func html(c *gin.Context, name string, titleKey string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = I18nWeb(c, titleKey)
	data["T"] = func(key string, params ...string) string {
		return locale.T(c, key, params...)
	}
	data["request_uri"] = c.Request.RequestURI
	data["current_path"] = c.Request.URL.Path
	data["flashes"] = session.Flashes(c)
	data["backend_up"] = c.GetBool(BackendUpKey)

	m := session.Current(c)
	if p, ok := m.Principal(); ok {
		data["principal"] = p
		data["display_name"] = p.DisplayName()
		data["initials"] = common.Initials(p.DisplayName())
		data["role_title"] = p.Role.Title()
		data["tabs"] = m.AllowedTabs()
	}
	c.HTML(http.StatusOK, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":  config.GetVersion(),
		"app_name": config.GetName(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// isAjax checks if the request is an AJAX request.
func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

// formFile reads an optional upload into a gateway file. A missing field
// returns nil without error.
func formFile(c *gin.Context, field string) (*gateway.File, error) {
	header, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > maxUploadSize {
		return nil, common.NewErrorf("%s is larger than %d MB", header.Filename, maxUploadSize>>20)
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &gateway.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
