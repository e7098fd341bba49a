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

type CommentService interface {
	Create(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64, req dto.UpdateCommentDTO) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64) error
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	ListByReview(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

// requireReview checks the parent review exists under the given title, so a
// comment route with a mismatched title/review pair reads as not found.
func (s *commentService) requireReview(titleID, reviewID int64) error {
	if _, err := s.reviewRepo.GetByID(titleID, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *commentService) Create(ctx context.Context, actor permissions.Actor, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrPermissionDenied
	}
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     req.Text,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(reviewID, comment.ID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(created), nil
}

func (s *commentService) Update(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64, req dto.UpdateCommentDTO) (*dto.CommentResponse, error) {
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !permissions.CanEditContent(actor, comment.AuthorID) {
		return nil, ErrPermissionDenied
	}

	if req.Text != nil {
		comment.Text = *req.Text
	}
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, actor permissions.Actor, titleID, reviewID, commentID int64) error {
	if err := s.requireReview(titleID, reviewID); err != nil {
		return err
	}

	comment, err := s.commentRepo.GetByID(reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !permissions.CanEditContent(actor, comment.AuthorID) {
		return ErrPermissionDenied
	}

	return s.commentRepo.Delete(comment.ID)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) ListByReview(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedCommentResponse, error) {
	if err := s.requireReview(titleID, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.GetByReview(reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, *dto.FromModelToCommentResponse(&comments[i]))
	}

	resp := dto.NewPaginatedCommentResponse(responses, page, pageSize, total)
	return &resp, nil
}
