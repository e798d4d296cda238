package postgres

import (
	"context"
	"errors"

	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/utils"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, int64, error)
	ListPublished(ctx context.Context, limit int) ([]models.Post, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
}

type postRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *postRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var p models.Post
	err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *postRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postRepo) List(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *postRepo) ListPublished(ctx context.Context, limit int) ([]models.Post, error) {
	q := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at <= NOW()").
		Order("published_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.Post
	err := q.Find(&rows).Error
	return rows, err
}

func (r *postRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, err
}

func (r *postRepo) Update(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *postRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
