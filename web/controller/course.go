package controller

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/service"
)

// CourseController manages the course catalogue.
type CourseController struct {
	BaseController

	courseService service.CourseService
}

func NewCourseController(g *gin.RouterGroup, backend *service.Backend) *CourseController {
	a := &CourseController{BaseController: BaseController{backend: backend}}
	a.initRouter(g)
	return a
}

func (a *CourseController) initRouter(g *gin.RouterGroup) {
	g.GET("/courses", guard("/courses", a.list)...)
	g.GET("/courses/:id", guard("/courses/:id", a.view)...)
	g.POST("/courses/:id/delete", guard("/courses/edit/:id", a.remove)...)
	g.GET("/add-course", guard("/add-course", a.addPage)...)
	g.POST("/add-course", guard("/add-course", a.create)...)
	g.GET("/courses/edit/:id", guard("/courses/edit/:id", a.editPage)...)
	g.POST("/courses/edit/:id", guard("/courses/edit/:id", a.update)...)
}

func (a *CourseController) list(c *gin.Context) {
	courses, err := a.courseService.List(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	html(c, "courses.html", "pages.courses.title", gin.H{
		"courses": courses,
	})
}

func (a *CourseController) view(c *gin.Context) {
	course, err := a.courseService.Get(c.Request.Context(), a.api(c), c.Param("id"))
	if err != nil {
		a.fail(c, err, "toasts.loadFailed", "/courses")
		return
	}
	html(c, "course.html", "pages.courses.view", gin.H{
		"course": course,
	})
}

func (a *CourseController) remove(c *gin.Context) {
	id := c.Param("id")
	if err := a.courseService.Delete(c.Request.Context(), a.api(c), id); err != nil {
		a.fail(c, err, "pages.courses.deleteFailed", "/courses/"+id)
		return
	}
	a.done(c, I18nWeb(c, "pages.courses.deleted"), "/courses")
}

func (a *CourseController) addPage(c *gin.Context) {
	html(c, "course_form.html", "pages.courses.add", gin.H{
		"form":   entity.CourseForm{Level: "Beginner", Mode: "Offline", Status: "Active"},
		"action": "/add-course",
	})
}

func (a *CourseController) create(c *gin.Context) {
	var form entity.CourseForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.courses.createFailed", "/add-course")
		return
	}
	image, err := formFile(c, "courseImg")
	if err != nil {
		a.fail(c, err, "pages.courses.createFailed", "/add-course")
		return
	}
	msg, err := a.courseService.Create(c.Request.Context(), a.api(c), form, image)
	if err != nil {
		a.fail(c, err, "pages.courses.createFailed", "/add-course")
		return
	}
	a.done(c, msg, "/courses")
}

// editPage pre-fills the form from the stored course.
func (a *CourseController) editPage(c *gin.Context) {
	id := c.Param("id")
	course, err := a.courseService.Get(c.Request.Context(), a.api(c), id)
	if err != nil {
		a.fail(c, err, "toasts.loadFailed", "/courses")
		return
	}
	form := entity.CourseForm{
		CourseName:  course.CourseName,
		Duration:    course.Duration,
		Fee:         course.Fee.String(),
		CourseImg:   course.CourseImg,
		Description: course.Description,
		Eligibility: course.Eligibility,
		Level:       course.Level,
		Mode:        course.Mode,
		Status:      course.Status,
		StartDate:   course.StartDate,
		Syllabus:    strings.Join(course.Syllabus, ", "),
	}
	if course.Instructor != nil {
		form.InstructorName = course.Instructor.Name
		form.InstructorExperience = course.Instructor.Experience.String()
	}
	html(c, "course_form.html", "pages.courses.edit", gin.H{
		"form":    form,
		"action":  "/courses/edit/" + id,
		"editing": true,
	})
}

func (a *CourseController) update(c *gin.Context) {
	id := c.Param("id")
	var form entity.CourseForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.courses.updateFailed", "/courses/edit/"+id)
		return
	}
	msg, err := a.courseService.Update(c.Request.Context(), a.api(c), id, form)
	if err != nil {
		a.fail(c, err, "pages.courses.updateFailed", "/courses/edit/"+id)
		return
	}
	a.done(c, msg, "/courses")
}
