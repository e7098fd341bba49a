package dto

import "reviewhub/internal/http-api/models"

// CreateCategoryDTO used for POST /api/v1/categories
type CreateCategoryDTO struct {
	Name string `json:"name" binding:"required,max=200"`
	Slug string `json:"slug" binding:"required,max=50"`
}

// CategoryResponse DTO for responses (slug doubles as the lookup key)
type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d CreateCategoryDTO) ToModel() models.Category {
	return models.Category{Name: d.Name, Slug: d.Slug}
}

func FromModelToCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}

type PaginatedCategoryResponse struct {
	Data       []CategoryResponse `json:"data"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"total_pages"`
}

func NewPaginatedCategoryResponse(data []CategoryResponse, page, pageSize int, total int64) PaginatedCategoryResponse {
	return PaginatedCategoryResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
