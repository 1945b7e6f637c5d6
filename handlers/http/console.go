package httpHandler

import (
	"net/http"

	"users-server/admin"
	"users-server/auth"
	"users-server/storage"
	"users-server/usecases"
	"users-server/validation"

	"github.com/gin-gonic/gin"
)

// ConsoleHandler serves the session-protected admin JSON API.
type ConsoleHandler struct {
	registry *admin.Registry
	admins   *usecases.AdminUseCase
	storage  *storage.LocalStorage
}

func NewConsoleHandler(registry *admin.Registry, admins *usecases.AdminUseCase, store *storage.LocalStorage) *ConsoleHandler {
	return &ConsoleHandler{registry: registry, admins: admins, storage: store}
}

// acting returns the request context tagged with the signed-in admin.
func acting(c *gin.Context) *gin.Context {
	if a, ok := auth.FromContext(c).Admin(); ok {
		c.Request = c.Request.WithContext(usecases.WithActor(c.Request.Context(), a.ID))
	}
	return c
}

func bindJSON(c *gin.Context) admin.Decoder {
	return func(dst any) error {
		if err := c.ShouldBindJSON(dst); err != nil {
			return validation.FromValidator(err)
		}
		return nil
	}
}

func (h *ConsoleHandler) view(c *gin.Context) (*admin.View, bool) {
	v, err := h.registry.Lookup(c.Param("view"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return v, true
}

// Views handles GET {prefix}/api/views
func (h *ConsoleHandler) Views(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"views": h.registry.Views()})
}

// List handles GET {prefix}/api/views/:view
func (h *ConsoleHandler) List(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	skip, limit, err := pagination(c)
	if err != nil {
		fail(c, err)
		return
	}
	page, err := v.List(c.Request.Context(), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET {prefix}/api/views/:view/:id
func (h *ConsoleHandler) Get(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	row, err := v.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    row,
		"actions": h.registry.RowActions(v, id),
	})
}

// Create handles POST {prefix}/api/views/:view
func (h *ConsoleHandler) Create(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	c = acting(c)
	row, err := v.Create(c.Request.Context(), bindJSON(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": row})
}

// Update handles PATCH {prefix}/api/views/:view/:id
func (h *ConsoleHandler) Update(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	c = acting(c)
	row, err := v.Update(c.Request.Context(), id, bindJSON(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

// Delete handles DELETE {prefix}/api/views/:view/:id. A miss answers
// deleted: 0 rather than 404.
func (h *ConsoleHandler) Delete(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	c = acting(c)
	deleted, err := v.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// Actions handles GET {prefix}/api/views/:view/:id/actions
func (h *ConsoleHandler) Actions(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": h.registry.RowActions(v, id)})
}

// RunAction handles POST {prefix}/api/views/:view/:id/actions/:action
func (h *ConsoleHandler) RunAction(c *gin.Context) {
	v, ok := h.view(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	c = acting(c)
	out, err := h.registry.Run(c.Request.Context(), v, c.Param("action"), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

// Activate handles POST {prefix}/api/admins/:id/activate
func (h *ConsoleHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate handles POST {prefix}/api/admins/:id/deactivate
func (h *ConsoleHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ConsoleHandler) setActive(c *gin.Context, active bool) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	c = acting(c)
	a, err := h.admins.SetActive(c.Request.Context(), id, active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": a.Response()})
}

// StorageInfo handles GET {prefix}/api/storage
func (h *ConsoleHandler) StorageInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.storage.Info())
}
