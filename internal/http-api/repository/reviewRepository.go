package repository

import (
	"database/sql"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	// Create inserts the review. A second review by the same author on the
	// same title fails on the composite unique index; callers classify that
	// with IsUniqueViolation.
	Create(review *models.Review) error
	Update(review *models.Review) error
	Delete(reviewID int64) error
	GetByID(titleID, reviewID int64) (*models.Review, error)
	GetByTitle(titleID int64, page, pageSize int) ([]models.Review, int64, error)
	// AverageScore returns the mean score across all reviews of a title, or
	// nil when the title has no reviews.
	AverageScore(titleID int64) (*float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

func (r *reviewRepository) Update(review *models.Review) error {
	return r.db.Save(review).Error
}

func (r *reviewRepository) Delete(reviewID int64) error {
	result := r.db.Delete(&models.Review{}, "id = ?", reviewID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByID retrieves a review scoped to its parent title, so a review id under
// the wrong title reads as not found.
func (r *reviewRepository) GetByID(titleID, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.Where("id = ? AND title_id = ?", reviewID, titleID).
		Preload("Author").
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetByTitle retrieves reviews in creation order with pagination.
func (r *reviewRepository) GetByTitle(titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	if err := r.db.Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.Where("title_id = ?", titleID).
		Preload("Author").
		Order("id ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) AverageScore(titleID int64) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.Model(&models.Review{}).
		Where("title_id = ?", titleID).
		Select("AVG(score)").
		Row().
		Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}
