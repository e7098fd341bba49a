package service

import (
	"context"
	"errors"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, actor permissions.Actor, slug string) error
}

type categoryService struct {
	categoryRepo *repository.CategoryRepo
}

func NewCategoryService(categoryRepo *repository.CategoryRepo) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedCategoryResponse, error) {
	categories, total, err := s.categoryRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, dto.FromModelToCategoryResponse(&categories[i]))
	}

	resp := dto.NewPaginatedCategoryResponse(responses, page, pageSize, total)
	return &resp, nil
}

func (s *categoryService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	if !permissions.CanWriteCatalog(actor) {
		return nil, ErrPermissionDenied
	}

	category := req.ToModel()
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugInUse
		}
		return nil, err
	}

	resp := dto.FromModelToCategoryResponse(&category)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, actor permissions.Actor, slug string) error {
	if !permissions.CanWriteCatalog(actor) {
		return ErrPermissionDenied
	}

	err := s.categoryRepo.DeleteBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
