package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

// CreateCommentDTO for commenting on a review
type CreateCommentDTO struct {
	Text string `json:"text" binding:"required"`
}

type UpdateCommentDTO struct {
	Text *string `json:"text,omitempty"`
}

type CommentResponse struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModelToCommentResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		Author:    comment.Author.Username,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
}

type PaginatedCommentResponse struct {
	Data       []CommentResponse `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
}

func NewPaginatedCommentResponse(data []CommentResponse, page, pageSize int, total int64) PaginatedCommentResponse {
	return PaginatedCommentResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
