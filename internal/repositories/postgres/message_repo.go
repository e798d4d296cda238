package postgres

import (
	"context"
	"time"

	"github.com/supercore/supercore-api/internal/models"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Insert(ctx context.Context, m *models.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	ListSince(ctx context.Context, since time.Time) ([]models.ChatMessage, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Insert(ctx context.Context, m *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepo) ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *messageRepo) ListSince(ctx context.Context, since time.Time) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&rows).Error
	return rows, err
}

func (r *messageRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}
