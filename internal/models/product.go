package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Product struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Slug string `gorm:"column:slug;type:text;uniqueIndex" json:"slug"`

	// Multilingual JSONB (keys: cn | hk | en)
	Name        datatypes.JSON `gorm:"column:name;type:jsonb" json:"name"`
	Description datatypes.JSON `gorm:"column:description;type:jsonb" json:"description"`
	Specs       datatypes.JSON `gorm:"column:specs;type:jsonb" json:"specs"`

	Images   pq.StringArray `gorm:"column:images;type:text[]" json:"images"`
	Category string         `gorm:"column:category;type:text" json:"category"`

	IsFeatured bool   `gorm:"column:is_featured" json:"featured"`
	Status     string `gorm:"column:status;type:text;index" json:"status"` // draft | published

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`
}

func (Product) TableName() string { return "products" }
