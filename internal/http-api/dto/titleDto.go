package dto

import (
	"reviewhub/internal/http-api/models"
)

// CreateTitleDTO used for POST /api/v1/titles. Category and genres are
// referenced by slug and resolved to foreign keys by the service; an unknown
// slug is a validation error.
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    *string  `json:"category,omitempty"`
	Genre       []string `json:"genre,omitempty"`
}

// UpdateTitleDTO used for PATCH/PUT /api/v1/titles/:id (partial updates allowed)
type UpdateTitleDTO struct {
	Name        *string   `json:"name,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Genre       *[]string `json:"genre,omitempty"`
}

// TitleResponse is the read view: category and genres expanded to display
// names, rating computed from reviews (null when there are none).
type TitleResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Rating      *float64 `json:"rating"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

func FromModelToTitleResponse(t *models.Title, rating *float64) *TitleResponse {
	resp := &TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Rating:      rating,
		Genre:       make([]string, 0, len(t.Genres)),
	}
	if t.Category != nil {
		resp.Category = &t.Category.Name
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, g.Name)
	}
	return resp
}

type PaginatedTitleResponse struct {
	Data       []TitleResponse `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func NewPaginatedTitleResponse(data []TitleResponse, page, pageSize int, total int64) PaginatedTitleResponse {
	return PaginatedTitleResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
