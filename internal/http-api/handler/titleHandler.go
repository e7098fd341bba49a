package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
)

type TitleHandler struct {
	titleService service.TitleService
}

func NewTitleHandler(titleService service.TitleService) *TitleHandler {
	return &TitleHandler{titleService: titleService}
}

func (h *TitleHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	titles := router.Group("/titles")
	{
		titles.GET("", h.List)
		titles.GET("/:title_id", h.Get)
		titles.POST("", requireAuth, h.Create)
		titles.PATCH("/:title_id", requireAuth, h.Update)
		titles.PUT("/:title_id", requireAuth, h.Update)
		titles.DELETE("/:title_id", requireAuth, h.Delete)
	}
}

func titleIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("title_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return 0, false
	}
	return id, true
}

// List retrieves titles with computed ratings
// GET /api/v1/titles?category=...&genre=...&year=...&name=...&page=1
func (h *TitleHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	filter := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year filter"})
			return
		}
		filter.Year = year
	}

	titles, err := h.titleService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, titles)
}

// Get retrieves one title with its computed rating
// GET /api/v1/titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := titleIDParam(c)
	if !ok {
		return
	}

	title, err := h.titleService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

// Create adds a title; category and genres arrive as slugs (admin only)
// POST /api/v1/titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	title, err := h.titleService.Create(c.Request.Context(), actor, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, title)
}

// Update partially updates a title (admin only)
// PATCH|PUT /api/v1/titles/:title_id
func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := titleIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateTitleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	title, err := h.titleService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, title)
}

// Delete removes a title and, through cascade, its reviews and comments
// DELETE /api/v1/titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := titleIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	if err := h.titleService.Delete(c.Request.Context(), actor, id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
