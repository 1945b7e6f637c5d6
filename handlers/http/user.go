package httpHandler

import (
	"net/http"
	"strconv"

	"users-server/apperrors"
	"users-server/entities"
	"users-server/usecases"
	"users-server/validation"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	useCase *usecases.UserUseCase
}

func NewUserHandler(useCase *usecases.UserUseCase) *UserHandler {
	return &UserHandler{
		useCase: useCase,
	}
}

// CreateUser handles POST /api/user
// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     APIKey
// @Param        input  body      entities.UserCreate  true  "New user"
// @Success      200    {object}  entities.UserResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      409    {object}  ErrorResponse
// @Failure      422    {object}  ErrorResponse
// @Router       /api/user [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req entities.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.FromValidator(err))
		return
	}

	user, err := h.useCase.CreateUser(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Response())
}

// GetAllUsers handles GET /api/user?skip=&limit=
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     APIKey
// @Param        skip   query     int  false  "Rows to skip"  default(0)
// @Param        limit  query     int  false  "Page size"     default(100)
// @Success      200    {array}   entities.UserResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      422    {object}  ErrorResponse
// @Router       /api/user [get]
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	skip, limit, err := pagination(c)
	if err != nil {
		fail(c, err)
		return
	}

	users, err := h.useCase.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]entities.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.Response()
	}
	c.JSON(http.StatusOK, out)
}

// GetUser handles GET /api/user/:id
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     APIKey
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  entities.UserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/user/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}

	user, err := h.useCase.GetUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Response())
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

const maxPageLimit = 1000

// pagination reads skip and limit. Absent values fall back to 0 and 100.
func pagination(c *gin.Context) (int, int, error) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		return 0, 0, apperrors.NewValidationError("skip", "must be a non-negative integer")
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > maxPageLimit {
		return 0, 0, apperrors.NewValidationError("limit", "must be between 1 and 1000")
	}
	return skip, limit, nil
}
