package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// RegisterRoutes registers category routes. Reads are public; writes go
// through requireAuth and the admin check in the service.
func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.List)
		categories.POST("", requireAuth, h.Create)
		categories.DELETE("/:slug", requireAuth, h.Delete)
	}
}

// List retrieves categories, optionally filtered by name substring
// GET /api/v1/categories?search=...&page=1&page_size=20
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	search := c.Query("search")

	categories, err := h.categoryService.List(c.Request.Context(), search, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// Create adds a category (admin only)
// POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	category, err := h.categoryService.Create(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// Delete removes a category by slug (admin only)
// DELETE /api/v1/categories/:slug
func (h *CategoryHandler) Delete(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := h.categoryService.Delete(c.Request.Context(), actor, c.Param("slug")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
