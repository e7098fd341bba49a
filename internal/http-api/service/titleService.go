package service

import (
	"context"
	"errors"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, actor permissions.Actor, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, actor permissions.Actor, id int64) error
}

type titleService struct {
	titleRepo    *repository.TitleRepo
	categoryRepo *repository.CategoryRepo
	genreRepo    *repository.GenreRepo
	reviewRepo   repository.ReviewRepository
}

func NewTitleService(
	titleRepo *repository.TitleRepo,
	categoryRepo *repository.CategoryRepo,
	genreRepo *repository.GenreRepo,
	reviewRepo repository.ReviewRepository,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		reviewRepo:   reviewRepo,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedTitleResponse, error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for i := range titles {
		rating, err := s.reviewRepo.AverageScore(titles[i].ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *dto.FromModelToTitleResponse(&titles[i], rating))
	}

	resp := dto.NewPaginatedTitleResponse(responses, page, pageSize, total)
	return &resp, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rating, err := s.reviewRepo.AverageScore(title.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title, rating), nil
}

// resolveCategory maps a category slug to its row, or reports the slug as a
// validation error when it matches nothing.
func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &UnknownSlugError{Kind: "category", Slug: slug}
		}
		return nil, err
	}
	return category, nil
}

// resolveGenres maps genre slugs to rows, reporting the first missing slug.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	genres, err := s.genreRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		found := make(map[string]bool, len(genres))
		for _, g := range genres {
			found[g.Slug] = true
		}
		for _, slug := range slugs {
			if !found[slug] {
				return nil, &UnknownSlugError{Kind: "genre", Slug: slug}
			}
		}
	}
	return genres, nil
}

func (s *titleService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	if !permissions.CanWriteCatalog(actor) {
		return nil, ErrPermissionDenied
	}

	title := models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}

	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.Create(ctx, &title); err != nil {
		return nil, err
	}

	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, actor permissions.Actor, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	if !permissions.CanWriteCatalog(actor) {
		return nil, ErrPermissionDenied
	}

	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	if req.Genre != nil {
		genres, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, title.ID)
}

// Delete removes the title; its reviews and their comments go with it through
// the cascade constraints.
func (s *titleService) Delete(ctx context.Context, actor permissions.Actor, id int64) error {
	if !permissions.CanWriteCatalog(actor) {
		return ErrPermissionDenied
	}

	err := s.titleRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
