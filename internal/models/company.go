package models

import "time"

// Company is a tenant of the platform. IDs are issued by the identity provider.
type Company struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LevelConfigs []LevelConfig `gorm:"foreignKey:CompanyID" json:"level_configs,omitempty"`
}
