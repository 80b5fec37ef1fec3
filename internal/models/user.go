package models

import "time"

type User struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(255);not null" json:"username"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
