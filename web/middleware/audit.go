package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/procodebh/crm-console/database/model"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

// AuditDeniedKey is set by Guard when it turns a caller away.
const AuditDeniedKey = "audit_denied"

// AuditMiddleware records denied access and completed form submissions of
// logged-in users.
func AuditMiddleware() gin.HandlerFunc {
	auditService := service.AuditLogService{}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if shouldSkipAudit(path) {
			c.Next()
			return
		}

		c.Next()

		denied := c.GetBool(AuditDeniedKey)
		if !denied && c.Request.Method != http.MethodPost {
			return
		}
		if !denied && c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		user := session.GetLoginUser(c)
		if user == nil {
			return
		}

		action, resource := extractActionFromPath(c.Request.Method, path)
		if denied {
			action = model.AuditDenied
		}
		if action == "" {
			return
		}

		err := auditService.LogAction(service.AuditEntry{
			Principal: user,
			Action:    action,
			Resource:  resource,
			Path:      path,
			IP:        c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			Details:   map[string]any{"method": c.Request.Method},
		})
		if err != nil {
			logger.Warning("Failed to log audit action:", err)
		}
	}
}

func shouldSkipAudit(path string) bool {
	for _, skipPath := range []string{"/assets/", "/favicon.ico", "/ws", "/metrics"} {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	// Login, OTP and logout are recorded by the auth service itself.
	return path == session.LoginPath || path == session.OTPPath || path == "/logout"
}

// extractActionFromPath maps a console form submission to an audit action
// and the resource it touched.
func extractActionFromPath(method, path string) (model.AuditAction, string) {
	var action model.AuditAction
	switch {
	case method != http.MethodPost:
		action = ""
	case strings.HasSuffix(path, "/delete"):
		action = model.AuditDelete
	case strings.HasPrefix(path, "/add-"), path == "/signup":
		action = model.AuditCreate
	default:
		action = model.AuditUpdate
	}

	trimmed := strings.TrimPrefix(path, "/")
	trimmed = strings.TrimPrefix(trimmed, "add-")
	resource, _, _ := strings.Cut(trimmed, "/")
	switch resource {
	case "student", "students":
		resource = "student"
	case "course", "courses":
		resource = "course"
	case "resume", "resumes":
		resource = "resume"
	case "placement", "placements":
		resource = "placement"
	case "signup":
		resource = "user"
	case "":
		resource = "unknown"
	}
	return action, resource
}
