package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type GenreHandler struct {
	genreService service.GenreService
}

func NewGenreHandler(genreService service.GenreService) *GenreHandler {
	return &GenreHandler{genreService: genreService}
}

func (h *GenreHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	genres := router.Group("/genres")
	{
		genres.GET("", h.List)
		genres.POST("", requireAuth, h.Create)
		genres.DELETE("/:slug", requireAuth, h.Delete)
	}
}

// List retrieves genres, optionally filtered by name substring
// GET /api/v1/genres?search=...&page=1&page_size=20
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	search := c.Query("search")

	genres, err := h.genreService.List(c.Request.Context(), search, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, genres)
}

// Create adds a genre (admin only)
// POST /api/v1/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.CreateGenreDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	genre, err := h.genreService.Create(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, genre)
}

// Delete removes a genre by slug (admin only)
// DELETE /api/v1/genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := h.genreService.Delete(c.Request.Context(), actor, c.Param("slug")); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
