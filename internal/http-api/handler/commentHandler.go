package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterRoutes registers comment routes nested under a title's review.
func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	comments := router.Group("/titles/:title_id/reviews/:review_id/comments")
	{
		comments.GET("", h.List)
		comments.GET("/:comment_id", h.Get)
		comments.POST("", requireAuth, h.Create)
		comments.PATCH("/:comment_id", requireAuth, h.Update)
		comments.DELETE("/:comment_id", requireAuth, h.Delete)
	}
}

func commentIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return 0, false
	}
	return id, true
}

// List retrieves comments on a review in creation order
// GET /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) List(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	comments, err := h.commentService.ListByReview(c.Request.Context(), titleID, reviewID, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// Get retrieves a single comment
// GET /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Get(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	commentID, ok := commentIDParam(c)
	if !ok {
		return
	}

	comment, err := h.commentService.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Create adds a comment authored by the authenticated user
// POST /api/v1/titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}

	var req dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	comment, err := h.commentService.Create(c.Request.Context(), actor, titleID, reviewID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// Update edits a comment (author or moderator+)
// PATCH /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Update(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	commentID, ok := commentIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	actor := middleware.ActorFromContext(c)
	comment, err := h.commentService.Update(c.Request.Context(), actor, titleID, reviewID, commentID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete removes a comment (author or moderator+)
// DELETE /api/v1/titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, ok := titleIDParam(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	commentID, ok := commentIDParam(c)
	if !ok {
		return
	}

	actor := middleware.ActorFromContext(c)
	if err := h.commentService.Delete(c.Request.Context(), actor, titleID, reviewID, commentID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
