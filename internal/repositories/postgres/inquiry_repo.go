package postgres

import (
	"context"
	"errors"

	"github.com/supercore/supercore-api/internal/models"
	"github.com/supercore/supercore-api/internal/utils"
	"gorm.io/gorm"
)

type InquiryRepository interface {
	Create(ctx context.Context, q *models.Inquiry) error
	GetByID(ctx context.Context, id int64) (*models.Inquiry, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Inquiry, int64, error)
	ListAll(ctx context.Context) ([]models.Inquiry, error)
	Count(ctx context.Context) (int64, error)
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type inquiryRepo struct {
	db *gorm.DB
}

func NewInquiryRepo(db *gorm.DB) InquiryRepository {
	return &inquiryRepo{db: db}
}

func (r *inquiryRepo) Create(ctx context.Context, q *models.Inquiry) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *inquiryRepo) GetByID(ctx context.Context, id int64) (*models.Inquiry, error) {
	var q models.Inquiry
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &q, err
}

func (r *inquiryRepo) List(ctx context.Context, status string, limit, offset int) ([]models.Inquiry, int64, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&models.Inquiry{})
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Inquiry
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *inquiryRepo) ListAll(ctx context.Context) ([]models.Inquiry, error) {
	var rows []models.Inquiry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *inquiryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Inquiry{}).Count(&n).Error
	return n, err
}

func (r *inquiryRepo) SetStatus(ctx context.Context, id int64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Inquiry{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *inquiryRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Inquiry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
