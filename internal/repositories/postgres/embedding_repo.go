package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/supercore/supercore-api/internal/models"
	"gorm.io/gorm"
)

type ProductEmbeddingRepository interface {
	Replace(ctx context.Context, e *models.ProductEmbedding) error
	DeleteByProduct(ctx context.Context, productID int64) error
	// Search runs a database-side nearest-neighbour query and returns
	// the top matches at or above the similarity threshold, descending.
	// An empty result is a valid outcome, not an error.
	Search(ctx context.Context, vec []float32, threshold float64, limit int) ([]models.ProductMatch, error)
}

type productEmbeddingRepo struct {
	db *gorm.DB
}

func NewProductEmbeddingRepo(db *gorm.DB) ProductEmbeddingRepository {
	return &productEmbeddingRepo{db: db}
}

func (r *productEmbeddingRepo) Replace(ctx context.Context, e *models.ProductEmbedding) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", e.ProductID).
			Delete(&models.ProductEmbedding{}).Error; err != nil {
			return err
		}
		return tx.Create(e).Error
	})
}

func (r *productEmbeddingRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductEmbedding{}).Error
}

func (r *productEmbeddingRepo) Search(ctx context.Context, vec []float32, threshold float64, limit int) ([]models.ProductMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	q := pgvector.NewVector(vec)

	var rows []models.ProductMatch
	err := r.db.WithContext(ctx).Raw(`
		SELECT pe.product_id,
		       p.name,
		       pe.content,
		       1 - (pe.embedding <=> ?) AS similarity
		FROM product_embeddings pe
		JOIN products p ON p.id = pe.product_id
		WHERE p.status = 'published'
		  AND 1 - (pe.embedding <=> ?) >= ?
		ORDER BY pe.embedding <=> ?
		LIMIT ?`,
		q, q, threshold, q, limit,
	).Scan(&rows).Error
	return rows, err
}
