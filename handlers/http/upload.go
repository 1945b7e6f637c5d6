package httpHandler

import (
	"net/http"

	"users-server/apperrors"
	"users-server/storage"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

type UploadHandler struct {
	storage *storage.LocalStorage
	baseURL string
	mount   string
}

func NewUploadHandler(store *storage.LocalStorage, baseURL, mount string) *UploadHandler {
	return &UploadHandler{storage: store, baseURL: baseURL, mount: mount}
}

// UploadResponse names the stored file and where it is served.
type UploadResponse struct {
	Locator string `json:"locator"`
	URL     string `json:"url"`
}

// Upload handles POST /api/uploads/:container with a multipart "file" field.
// @Summary      Upload a file
// @Tags         storage
// @Accept       mpfd
// @Produce      json
// @Security     APIKey
// @Param        container  path      string  true  "Storage container, e.g. users_image"
// @Param        file       formData  file    true  "File to store"
// @Success      201        {object}  UploadResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      422        {object}  ErrorResponse
// @Router       /api/uploads/{container} [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, apperrors.NewValidationError("file", "field required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, apperrors.NewBadRequestError("unreadable upload"))
		return
	}
	defer f.Close()

	loc, err := h.storage.Store(c.Request.Context(), c.Param("container"), fh.Filename, f)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Locator: loc.String(),
		URL:     h.storage.URL(loc, h.baseURL, h.mount),
	})
}
