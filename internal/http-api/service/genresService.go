package service

import (
	"context"
	"errors"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedGenreResponse, error)
	Create(ctx context.Context, actor permissions.Actor, req dto.CreateGenreDTO) (*dto.GenreResponse, error)
	Delete(ctx context.Context, actor permissions.Actor, slug string) error
}

type genreService struct {
	genreRepo *repository.GenreRepo
}

func NewGenreService(genreRepo *repository.GenreRepo) GenreService {
	return &genreService{genreRepo: genreRepo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedGenreResponse, error) {
	genres, total, err := s.genreRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GenreResponse, 0, len(genres))
	for i := range genres {
		responses = append(responses, dto.FromModelToGenreResponse(&genres[i]))
	}

	resp := dto.NewPaginatedGenreResponse(responses, page, pageSize, total)
	return &resp, nil
}

func (s *genreService) Create(ctx context.Context, actor permissions.Actor, req dto.CreateGenreDTO) (*dto.GenreResponse, error) {
	if !permissions.CanWriteCatalog(actor) {
		return nil, ErrPermissionDenied
	}

	genre := req.ToModel()
	if err := s.genreRepo.Create(ctx, &genre); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugInUse
		}
		return nil, err
	}

	resp := dto.FromModelToGenreResponse(&genre)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, actor permissions.Actor, slug string) error {
	if !permissions.CanWriteCatalog(actor) {
		return ErrPermissionDenied
	}

	err := s.genreRepo.DeleteBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
