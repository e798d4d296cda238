package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ProductEmbedding holds the 1024-dim vector for one product,
// recomputed whenever the product changes.
type ProductEmbedding struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID int64           `gorm:"column:product_id;index" json:"productId"`
	Content   string          `gorm:"column:content;type:text" json:"content"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1024)" json:"embedding"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (ProductEmbedding) TableName() string { return "product_embeddings" }

// ProductMatch is one similarity-search hit, ranked by descending
// similarity. Ephemeral, produced per query.
type ProductMatch struct {
	ProductID  int64          `json:"productId"`
	Name       datatypes.JSON `json:"name"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
}
