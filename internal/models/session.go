package models

import "time"

type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionArchived SessionStatus = "archived"
	SessionDeleted  SessionStatus = "deleted"
)

func ValidSessionStatus(s string) bool {
	switch SessionStatus(s) {
	case SessionActive, SessionArchived, SessionDeleted:
		return true
	}
	return false
}

type ChatSession struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"column:session_title;type:text" json:"title"`
	Language  string    `gorm:"column:language;type:text" json:"language"` // zh-HK | zh-CN | en
	Status    string    `gorm:"column:status;type:text;index" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`
}

func (ChatSession) TableName() string { return "chat_sessions" }
