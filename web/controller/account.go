package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/procodebh/crm-console/web/entity"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

// AccountController creates staff accounts and edits the caller's profile.
type AccountController struct {
	BaseController

	signupService  service.SignupService
	profileService service.ProfileService
}

func NewAccountController(g *gin.RouterGroup, backend *service.Backend) *AccountController {
	a := &AccountController{BaseController: BaseController{backend: backend}}
	a.initRouter(g)
	return a
}

func (a *AccountController) initRouter(g *gin.RouterGroup) {
	g.GET("/signup", guard("/signup", a.signupPage)...)
	g.POST("/signup", guard("/signup", a.signup)...)
	g.GET("/profile", guard("/profile", a.profile)...)
	g.GET("/profile/edit", guard("/profile/edit", a.editPage)...)
	g.POST("/profile/edit", guard("/profile/edit", a.update)...)
}

func (a *AccountController) signupPage(c *gin.Context) {
	html(c, "signup.html", "pages.signup.title", gin.H{
		"roles": session.Roles,
	})
}

func (a *AccountController) signup(c *gin.Context) {
	var form entity.SignupForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.signup.createFailed", "/signup")
		return
	}
	msg, err := a.signupService.Create(c.Request.Context(), a.api(c), form)
	if err != nil {
		a.fail(c, err, "pages.signup.createFailed", "/signup")
		return
	}
	a.done(c, msg, "/signup")
}

func (a *AccountController) profile(c *gin.Context) {
	profile, err := a.profileService.Get(c.Request.Context(), a.api(c))
	if err != nil {
		a.loadFailed(c, err)
	}
	html(c, "profile.html", "pages.profile.title", gin.H{
		"profile": profile,
	})
}

func (a *AccountController) editPage(c *gin.Context) {
	profile, err := a.profileService.Get(c.Request.Context(), a.api(c))
	if err != nil {
		a.fail(c, err, "toasts.loadFailed", "/profile")
		return
	}
	html(c, "profile_form.html", "pages.profile.edit", gin.H{
		"profile": profile,
	})
}

func (a *AccountController) update(c *gin.Context) {
	var form entity.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		a.fail(c, err, "pages.profile.updateFailed", "/profile/edit")
		return
	}
	image, err := formFile(c, "profileImage")
	if err != nil {
		a.fail(c, err, "pages.profile.updateFailed", "/profile/edit")
		return
	}
	msg, err := a.profileService.Update(c.Request.Context(), a.api(c), form, image)
	if err != nil {
		a.fail(c, err, "pages.profile.updateFailed", "/profile/edit")
		return
	}
	a.done(c, msg, "/profile")
}
