package models

import "time"

// LevelConfig binds an XP threshold and an optional reward to a level of one company.
type LevelConfig struct {
	CompanyID   string  `gorm:"type:varchar(64);primaryKey;autoIncrement:false" json:"company_id"`
	LevelNumber int     `gorm:"primaryKey;autoIncrement:false" json:"level_number"`
	XPRequired  int64   `gorm:"not null" json:"xp_required"`
	RewardName  *string `gorm:"type:varchar(255)" json:"reward_name"`
}

// UserProgress is the accumulated XP and derived level of a user within a company.
type UserProgress struct {
	UserID       string    `gorm:"type:varchar(64);primaryKey" json:"user_id"`
	CompanyID    string    `gorm:"type:varchar(64);primaryKey;index" json:"company_id"`
	CurrentXP    int64     `gorm:"not null;default:0" json:"current_xp"`
	CurrentLevel int       `gorm:"not null;default:1" json:"current_level"`
	UpdatedAt    time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
