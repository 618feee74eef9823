package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

// DashboardController shows the institute's headline figures.
type DashboardController struct {
	BaseController

	dashboardService service.DashboardService
}

func NewDashboardController(g *gin.RouterGroup, backend *service.Backend) *DashboardController {
	a := &DashboardController{BaseController: BaseController{backend: backend}}
	a.initRouter(g)
	return a
}

func (a *DashboardController) initRouter(g *gin.RouterGroup) {
	g.GET(session.DashboardPath, guard(session.DashboardPath, a.index)...)
}

// index renders the dashboard. A failed load still shows the page, with
// zeroed figures and an error toast.
func (a *DashboardController) index(c *gin.Context) {
	data, stats, err := a.dashboardService.Load(c.Request.Context(), a.api(c))
	if err != nil {
		logger.Warning("dashboard load failed:", err)
		session.AddFlash(c, session.FlashError, I18nWeb(c, "pages.dashboard.failed"))
	}
	html(c, "dashboard.html", "pages.dashboard.title", gin.H{
		"data":  data,
		"stats": stats,
	})
}
