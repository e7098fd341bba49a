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

type ReviewService interface {
	Create(ctx context.Context, actor permissions.Actor, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID int64) error
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  *repository.TitleRepo
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo *repository.TitleRepo) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

// Create stores a review authored by the acting user. The author is always
// the actor; any author in the payload was discarded at the DTO boundary.
func (s *reviewService) Create(ctx context.Context, actor permissions.Actor, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrPermissionDenied
	}
	if req.Score < 1 || req.Score > 10 {
		return nil, ErrScoreOutOfRange
	}

	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		// the (title, author) unique index is the authority on duplicates;
		// no pre-read, so concurrent submissions cannot both win
		if repository.IsUniqueViolation(err) {
			return nil, ErrReviewExists
		}
		return nil, err
	}

	// reload to pick up the author association for the response
	created, err := s.reviewRepo.GetByID(titleID, review.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(created), nil
}

func (s *reviewService) Update(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !permissions.CanEditContent(actor, review.AuthorID) {
		return nil, ErrPermissionDenied
	}

	// title and author are immutable; only text and score may change
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		if *req.Score < 1 || *req.Score > 10 {
			return nil, ErrScoreOutOfRange
		}
		review.Score = *req.Score
	}

	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID int64) error {
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !permissions.CanEditContent(actor, review.AuthorID) {
		return ErrPermissionDenied
	}

	return s.reviewRepo.Delete(review.ID)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedReviewResponse, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reviews, total, err := s.reviewRepo.GetByTitle(titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, *dto.FromModelToReviewResponse(&reviews[i]))
	}

	resp := dto.NewPaginatedReviewResponse(responses, page, pageSize, total)
	return &resp, nil
}
