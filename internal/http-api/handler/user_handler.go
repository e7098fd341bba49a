package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes registers user routes. /users/me must be registered before
// the :username routes so the static segment wins.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	users := router.Group("/users", requireAuth)
	{
		users.GET("/me", h.Profile)
		users.PATCH("/me", h.UpdateProfile)

		users.GET("", h.List)
		users.POST("", h.Create)
		users.GET("/:username", h.Get)
		users.PATCH("/:username", h.Update)
		users.DELETE("/:username", h.Delete)
	}
}

// Profile returns the authenticated user's own record
// GET /api/v1/users/me
func (h *UserHandler) Profile(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	user, err := h.userService.Profile(actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's own record; the payload has
// no role field
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	user, err := h.userService.UpdateProfile(actor, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// List retrieves all users (admin only)
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	actor := middleware.ActorFromContext(c)
	users, err := h.userService.List(actor, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Create adds a user with an explicit role (admin only)
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	user, err := h.userService.Create(actor, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Get retrieves a user by username (admin only)
// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	user, err := h.userService.GetByUsername(actor, c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update partially updates a user, role included (admin only)
// PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	user, err := h.userService.UpdateByUsername(actor, c.Param("username"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete removes a user (admin only)
// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := h.userService.DeleteByUsername(actor, c.Param("username")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
