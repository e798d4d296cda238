package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is the authorization-relevant record for an identity,
// keyed by the identity provider's subject UUID. Owned by the auth
// platform; read-only from this service.
type Profile struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;type:text" json:"email"`
	Role      Role      `gorm:"column:role;type:text" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (Profile) TableName() string { return "profiles" }
