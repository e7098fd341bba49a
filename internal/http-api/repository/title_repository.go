package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows a title listing. Zero values mean "no filter".
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Year         int
	Name         string
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TitleRepo) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Title{})

	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		q = q.Joins("JOIN title_genres tg ON tg.title_id = titles.id").
			Joins("JOIN genres ON genres.id = tg.genre_id").
			Where("genres.slug = ?", filter.GenreSlug)
	}
	if filter.Year != 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}
	if filter.Name != "" {
		q = q.Where("titles.name LIKE ?", "%"+filter.Name+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	var list []models.Title
	offset := (page - 1) * pageSize
	err := q.Preload("Category").
		Preload("Genres").
		Order("titles.id asc").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}
	return list, total, nil
}

func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

// Update saves scalar fields; genre membership is replaced separately via
// ReplaceGenres so a partial update without genres leaves them untouched.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title) error {
	if err := r.db.WithContext(ctx).Omit("Genres", "Category").Save(t).Error; err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func (r *TitleRepo) ReplaceGenres(ctx context.Context, t *models.Title, genres []models.Genre) error {
	if err := r.db.WithContext(ctx).Model(t).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("replace title genres: %w", err)
	}
	return nil
}

func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Title{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
