package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Assignment struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	UserID       string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	CompanyID    string    `gorm:"type:varchar(64);not null;index:idx_assignments_company_created,priority:1" json:"company_id"`
	VoteCount    int64     `gorm:"not null;default:0" json:"vote_count"`
	CommentCount int64     `gorm:"not null;default:0" json:"comment_count"`
	Tags         TagList   `json:"tags"`
	FileURL      *string   `gorm:"type:text" json:"file_url"`
	FileName     *string   `gorm:"type:varchar(255)" json:"file_name"`
	CreatedAt    time.Time `gorm:"index:idx_assignments_company_created,priority:2" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type VoteDirection int8

const (
	VoteDown VoteDirection = -1
	VoteUp   VoteDirection = 1
)

// Valid reports whether d is one of the two accepted directions.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Vote is the single standing vote of a user on an assignment.
type Vote struct {
	AssignmentID string        `gorm:"type:varchar(36);primaryKey" json:"assignment_id"`
	UserID       string        `gorm:"type:varchar(64);primaryKey" json:"user_id"`
	Direction    VoteDirection `gorm:"type:smallint;not null" json:"vote_type"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type Comment struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AssignmentID string    `gorm:"type:varchar(36);not null;index" json:"assignment_id"`
	UserID       string    `gorm:"type:varchar(64);not null" json:"user_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
