package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/service"
)

// StudentController lists, shows, enrolls, edits and removes students.
type StudentController struct {
	BaseController

	studentService service.StudentService
}

func NewStudentController(g *gin.RouterGroup, backend *service.Backend) *StudentController {
	a := &StudentController{BaseController: BaseController{backend: backend}}
	a.initRouter(g)
	return a
}

func (a *StudentController) initRouter(g *gin.RouterGroup) {
	g.GET("/students", guard("/students", a.list)...)
	g.GET("/students/:id", guard("/students/:id", a.view)...)
	g.POST("/students/:id/edit", guard("/students/:id", a.update)...)
	g.POST("/students/:id/delete", guard("/students/:id", a.remove)...)
	g.GET("/add-student", guard("/add-student", a.addPage)...)
	g.POST("/add-student", guard("/add-student", a.create)...)
}

// list shows the student cards matching q, a page at a time.
func (a *StudentController) list(c *gin.Context) {
	students, err := a.studentService.List(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	query := c.Query("q")
	filtered := service.FilterStudents(students, query)
	requested, _ := strconv.Atoi(c.Query("visible"))
	visible := service.VisibleCount(requested, len(filtered))

	html(c, "students.html", "pages.students.title", gin.H{
		"students":     filtered[:visible],
		"total":        len(filtered),
		"query":        query,
		"has_more":     visible < len(filtered),
		"next_visible": visible + service.StudentPageSize,
	})
}

func (a *StudentController) view(c *gin.Context) {
	student, err := a.studentService.Get(c.Request.Context(), a.api(c), c.Param("id"))
	if err != nil {
		a.fail(c, err, "toasts.loadFailed", "/students")
		return
	}
	html(c, "student.html", "pages.students.view", gin.H{
		"student": student,
		"editing": c.Query("edit") != "",
	})
}

func (a *StudentController) update(c *gin.Context) {
	id := c.Param("id")
	back := "/students/" + id
	var form entity.StudentForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.students.updateFailed", back)
		return
	}
	_, msg, err := a.studentService.Update(c.Request.Context(), a.api(c), id, form)
	if err != nil {
		a.fail(c, err, "pages.students.updateFailed", back+"?edit=1")
		return
	}
	a.done(c, msg, back)
}

func (a *StudentController) remove(c *gin.Context) {
	id := c.Param("id")
	if err := a.studentService.Delete(c.Request.Context(), a.api(c), id); err != nil {
		a.fail(c, err, "pages.students.deleteFailed", "/students/"+id)
		return
	}
	a.done(c, I18nWeb(c, "pages.students.deleted"), "/students")
}

func (a *StudentController) addPage(c *gin.Context) {
	html(c, "student_form.html", "pages.students.add", nil)
}

func (a *StudentController) create(c *gin.Context) {
	var form entity.StudentForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.students.createFailed", "/add-student")
		return
	}
	image, err := formFile(c, "profileImage")
	if err != nil {
		a.fail(c, err, "pages.students.createFailed", "/add-student")
		return
	}
	msg, err := a.studentService.Create(c.Request.Context(), a.api(c), form, image)
	if err != nil {
		a.fail(c, err, "pages.students.createFailed", "/add-student")
		return
	}
	a.done(c, msg, "/students")
}
