package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/service"
)

// RecordsController serves the resume, placement and alumni screens.
type RecordsController struct {
	BaseController

	resumeService    service.ResumeService
	placementService service.PlacementService
	alumniService    service.AlumniService
	studentService   service.StudentService
}

func NewRecordsController(g *gin.RouterGroup, backend *service.Backend) *RecordsController {
	a := &RecordsController{BaseController: BaseController{backend: backend}}
	a.initRouter(g)
	return a
}

func (a *RecordsController) initRouter(g *gin.RouterGroup) {
	g.GET("/resumes", guard("/resumes", a.resumes)...)
	g.GET("/add-resume", guard("/add-resume", a.addResumePage)...)
	g.POST("/add-resume", guard("/add-resume", a.createResume)...)

	g.GET("/placements", guard("/placements", a.placements)...)
	g.GET("/add-placement", guard("/add-placement", a.addPlacementPage)...)
	g.POST("/add-placement", guard("/add-placement", a.createPlacement)...)

	g.GET("/alumni", guard("/alumni", a.alumni)...)
	g.GET("/add-alumni", guard("/add-alumni", a.addAlumniPage)...)
	g.POST("/add-alumni", guard("/add-alumni", a.createAlumni)...)
}

type resumeRow struct {
	entity.Resume
	StatusClass string
}

func (a *RecordsController) resumes(c *gin.Context) {
	list, err := a.resumeService.List(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	rows := make([]resumeRow, 0, len(list))
	for _, r := range list {
		rows = append(rows, resumeRow{Resume: r, StatusClass: service.ResumeStatusClass(r.Status)})
	}
	html(c, "resumes.html", "pages.resumes.title", gin.H{
		"resumes": rows,
	})
}

func (a *RecordsController) addResumePage(c *gin.Context) {
	html(c, "resume_form.html", "pages.resumes.add", nil)
}

func (a *RecordsController) createResume(c *gin.Context) {
	var form entity.ResumeForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.resumes.createFailed", "/add-resume")
		return
	}
	file, err := formFile(c, "resume")
	if err != nil {
		a.fail(c, err, "pages.resumes.createFailed", "/add-resume")
		return
	}
	msg, err := a.resumeService.Create(c.Request.Context(), a.api(c), form, file)
	if err != nil {
		a.fail(c, err, "pages.resumes.createFailed", "/add-resume")
		return
	}
	a.done(c, msg, "/resumes")
}

func (a *RecordsController) placements(c *gin.Context) {
	list, err := a.placementService.List(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	html(c, "placements.html", "pages.placements.title", gin.H{
		"placements": list,
	})
}

func (a *RecordsController) addPlacementPage(c *gin.Context) {
	html(c, "placement_form.html", "pages.placements.add", gin.H{
		"students": a.studentOptions(c),
	})
}

func (a *RecordsController) createPlacement(c *gin.Context) {
	var form entity.PlacementForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.placements.createFailed", "/add-placement")
		return
	}
	msg, err := a.placementService.Create(c.Request.Context(), a.api(c), form)
	if err != nil {
		a.fail(c, err, "pages.placements.createFailed", "/add-placement")
		return
	}
	a.done(c, msg, "/placements")
}

func (a *RecordsController) alumni(c *gin.Context) {
	list, err := a.alumniService.List(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	html(c, "alumni.html", "pages.alumni.title", gin.H{
		"alumni": list,
	})
}

func (a *RecordsController) addAlumniPage(c *gin.Context) {
	html(c, "alumni_form.html", "pages.alumni.add", gin.H{
		"students": a.studentOptions(c),
	})
}

func (a *RecordsController) createAlumni(c *gin.Context) {
	var form entity.AlumniForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.alumni.createFailed", "/add-alumni")
		return
	}
	msg, err := a.alumniService.Create(c.Request.Context(), a.api(c), form)
	if err != nil {
		a.fail(c, err, "pages.alumni.createFailed", "/add-alumni")
		return
	}
	a.done(c, msg, "/alumni")
}

// studentOptions lists students for the form's student picker. A failure
// leaves the picker empty and toasts.
func (a *RecordsController) studentOptions(c *gin.Context) []entity.Student {
	students, err := a.studentService.List(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	return students
}
