package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Post is a news article managed through the admin panel.
type Post struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Slug string `gorm:"column:slug;type:text;uniqueIndex" json:"slug"`

	Title   datatypes.JSON `gorm:"column:title;type:jsonb" json:"title"`
	Summary datatypes.JSON `gorm:"column:summary;type:jsonb" json:"summary"`
	Content datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`

	CoverImage string         `gorm:"column:cover_image;type:text" json:"coverImage"`
	Tags       pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`

	PublishedAt *time.Time `gorm:"column:published_at;type:timestamptz;index" json:"publishedAt"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }
