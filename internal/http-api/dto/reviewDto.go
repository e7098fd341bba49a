package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

// CreateReviewDTO for creating a review; the author always comes from the
// authenticated actor, never from the payload.
type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewDTO for partial review updates (title and author are immutable)
type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty"`
	Score *int    `json:"score,omitempty" binding:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModelToReviewResponse(review *models.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:        review.ID,
		Author:    review.Author.Username,
		Text:      review.Text,
		Score:     review.Score,
		CreatedAt: review.CreatedAt,
	}
}

type PaginatedReviewResponse struct {
	Data       []ReviewResponse `json:"data"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

func NewPaginatedReviewResponse(data []ReviewResponse, page, pageSize int, total int64) PaginatedReviewResponse {
	return PaginatedReviewResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
