package dto

import (
	"time"

	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
	"github.com/yukikurage/questboard-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// AssignmentDTO represents an assignment in API responses
type AssignmentDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	UserID       string    `json:"user_id"`
	CompanyID    string    `json:"company_id"`
	VoteCount    int64     `json:"vote_count"`
	CommentCount int64     `json:"comment_count"`
	Tags         []string  `json:"tags"`
	FileURL      *string   `json:"file_url"`
	FileName     *string   `json:"file_name"`
	CreatedAt    time.Time `json:"created_at"`
	Author       *UserDTO  `json:"author,omitempty"`
	// MyVote is the caller's standing vote, 0 when none. Only set on detail responses.
	MyVote *int8 `json:"my_vote,omitempty"`
}

// AssignmentListResponse represents a paginated list of assignments
type AssignmentListResponse struct {
	Assignments []AssignmentDTO          `json:"assignments"`
	Pagination  utils.PaginationResponse `json:"pagination"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"`
	UserID       string    `json:"user_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	Author       *UserDTO  `json:"author,omitempty"`
}

type LevelDTO struct {
	LevelNumber int     `json:"level_number"`
	XPRequired  int64   `json:"xp_required"`
	RewardName  *string `json:"reward_name"`
}

type LeaderboardEntryDTO struct {
	Rank         int     `json:"rank"`
	User         UserDTO `json:"user"`
	CurrentXP    int64   `json:"current_xp"`
	CurrentLevel int     `json:"current_level"`
}

// MeDTO is the caller with the companies they may act in
type MeDTO struct {
	User      UserDTO                  `json:"user"`
	Companies []identity.CompanyAccess `json:"companies"`
}

type StatsDTO struct {
	TotalAssignments int64 `json:"total_assignments"`
	TotalUsers       int64 `json:"total_users"`
	TotalComments    int64 `json:"total_comments"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}
}

// ToAssignmentDTO converts an Assignment model to AssignmentDTO
func ToAssignmentDTO(a models.Assignment) AssignmentDTO {
	tags := []string(a.Tags)
	if tags == nil {
		tags = []string{}
	}
	dto := AssignmentDTO{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		UserID:       a.UserID,
		CompanyID:    a.CompanyID,
		VoteCount:    a.VoteCount,
		CommentCount: a.CommentCount,
		Tags:         tags,
		FileURL:      a.FileURL,
		FileName:     a.FileName,
		CreatedAt:    a.CreatedAt,
	}

	// Include author if preloaded
	if a.User.ID != "" {
		author := ToUserDTO(a.User)
		dto.Author = &author
	}
	return dto
}

// ToAssignmentListResponse converts a page of assignments
func ToAssignmentListResponse(list []models.Assignment, params utils.PaginationParams, total int64) AssignmentListResponse {
	items := make([]AssignmentDTO, len(list))
	for i, a := range list {
		items[i] = ToAssignmentDTO(a)
	}
	return AssignmentListResponse{
		Assignments: items,
		Pagination:  params.Response(total),
	}
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(c models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:           c.ID,
		AssignmentID: c.AssignmentID,
		UserID:       c.UserID,
		Content:      c.Content,
		CreatedAt:    c.CreatedAt,
	}
	if c.User.ID != "" {
		author := ToUserDTO(c.User)
		dto.Author = &author
	}
	return dto
}

func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = ToCommentDTO(c)
	}
	return out
}

func ToLevelDTOs(levels []models.LevelConfig) []LevelDTO {
	out := make([]LevelDTO, len(levels))
	for i, l := range levels {
		out[i] = LevelDTO{LevelNumber: l.LevelNumber, XPRequired: l.XPRequired, RewardName: l.RewardName}
	}
	return out
}

// ToLeaderboard ranks rows in the order given, starting at 1
func ToLeaderboard(rows []models.UserProgress) []LeaderboardEntryDTO {
	out := make([]LeaderboardEntryDTO, len(rows))
	for i, p := range rows {
		user := ToUserDTO(p.User)
		if user.ID == "" {
			user.ID = p.UserID
		}
		out[i] = LeaderboardEntryDTO{
			Rank:         i + 1,
			User:         user,
			CurrentXP:    p.CurrentXP,
			CurrentLevel: p.CurrentLevel,
		}
	}
	return out
}

func ToStatsDTO(s repository.CompanyStats) StatsDTO {
	return StatsDTO{
		TotalAssignments: s.TotalAssignments,
		TotalUsers:       s.TotalUsers,
		TotalComments:    s.TotalComments,
	}
}
