package models

import "time"

var InquiryStatuses = []string{"new", "read", "archived"}

func ValidInquiryStatus(s string) bool {
	for _, v := range InquiryStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Inquiry struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email   string `gorm:"column:email;type:text" json:"email"`
	Name    string `gorm:"column:name;type:text" json:"name"`
	Company string `gorm:"column:company;type:text" json:"company"`
	Phone   string `gorm:"column:phone;type:text" json:"phone"`
	Message string `gorm:"column:message;type:text" json:"message"`
	Status  string `gorm:"column:status;type:text;index" json:"status"` // new | read | archived

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updatedAt"`
}

func (Inquiry) TableName() string { return "inquiries" }
