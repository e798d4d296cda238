package models

import (
	"time"

	"gorm.io/datatypes"
)

type ChatMessage struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"column:session_id;type:uuid;index" json:"sessionId"`
	Role      string         `gorm:"column:role;type:text" json:"role"` // "user" | "assistant" | "system"
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"createdAt"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
