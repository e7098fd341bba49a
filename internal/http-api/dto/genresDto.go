package dto

import "reviewhub/internal/http-api/models"

// CreateGenreDTO used for POST /api/v1/genres
type CreateGenreDTO struct {
	Name string `json:"name" binding:"required,max=200"`
	Slug string `json:"slug" binding:"required,max=50"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d CreateGenreDTO) ToModel() models.Genre {
	return models.Genre{Name: d.Name, Slug: d.Slug}
}

func FromModelToGenreResponse(g *models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}

type PaginatedGenreResponse struct {
	Data       []GenreResponse `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func NewPaginatedGenreResponse(data []GenreResponse, page, pageSize int, total int64) PaginatedGenreResponse {
	return PaginatedGenreResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
