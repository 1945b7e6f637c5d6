package httpHandler

import (
	"net/http"
	"strings"

	"users-server/apperrors"
	"users-server/auth"
	"users-server/entities"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// LoginHandler serves the admin console's session endpoints.
type LoginHandler struct {
	provider *auth.Provider
	cookie   auth.CookieOptions
	siteName string
}

func NewLoginHandler(provider *auth.Provider, cookie auth.CookieOptions, siteName string) *LoginHandler {
	return &LoginHandler{provider: provider, cookie: cookie, siteName: siteName}
}

// loginForm carries no binding rules; the provider validates so that a short
// username is reported per field. remember_me is read by hand for forms since
// a checkbox posts "on".
type loginForm struct {
	UserName   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"-"`
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Success bool                   `json:"success"`
	Admin   entities.AdminResponse `json:"admin"`
}

// MeResponse describes the signed-in admin.
type MeResponse struct {
	SiteName string                 `json:"site_name"`
	Admin    entities.AdminResponse `json:"admin"`
}

// Login handles POST {prefix}/login. The body may be a form or JSON.
// @Summary      Admin login
// @Description  Sets the http-only session cookie. A username under 3 characters is a field error; any other bad pair is a generic 401.
// @Tags         admin
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        input  body      loginForm  true  "Credentials"
// @Success      200    {object}  LoginResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      422    {object}  ErrorResponse
// @Router       /admin/login [post]
func (h *LoginHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, apperrors.NewBadRequestError("invalid login form"))
		return
	}
	if c.ContentType() != binding.MIMEJSON {
		form.RememberMe = checked(c.PostForm("remember_me"))
	}
	creds := auth.Credentials{
		UserName:   form.UserName,
		Password:   form.Password,
		RememberMe: form.RememberMe,
	}

	grant, err := h.provider.Login(c.Request.Context(), creds)
	if err != nil {
		fail(c, err)
		return
	}

	auth.SetCookie(c, grant, h.cookie)
	c.JSON(http.StatusOK, LoginResponse{Success: true, Admin: grant.Admin.Response()})
}

// Logout handles POST {prefix}/logout
// @Summary  Admin logout
// @Tags     admin
// @Produce  json
// @Success  200  {object}  map[string]bool
// @Router   /admin/logout [post]
func (h *LoginHandler) Logout(c *gin.Context) {
	if err := h.provider.LogoutRequest(c, h.cookie); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET {prefix}/me
// @Summary  Current admin
// @Tags     admin
// @Produce  json
// @Success  200  {object}  MeResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /admin/me [get]
func (h *LoginHandler) Me(c *gin.Context) {
	admin, ok := auth.FromContext(c).Admin()
	if !ok {
		fail(c, apperrors.NewUnauthorizedError("admin login required"))
		return
	}
	c.JSON(http.StatusOK, MeResponse{SiteName: h.siteName, Admin: admin.Response()})
}
