package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/utils"
)

func TestToAssignmentDTO(t *testing.T) {
	a := models.Assignment{ID: "a1", Title: "T", UserID: "u1", CompanyID: "c1"}
	dto := ToAssignmentDTO(a)
	assert.Equal(t, []string{}, dto.Tags)
	assert.Nil(t, dto.Author)

	a.User = models.User{ID: "u1", Username: "alice"}
	a.Tags = models.TagList{"go"}
	dto = ToAssignmentDTO(a)
	assert.Equal(t, []string{"go"}, dto.Tags)
	if assert.NotNil(t, dto.Author) {
		assert.Equal(t, "alice", dto.Author.Username)
	}
}

func TestToLeaderboard(t *testing.T) {
	entries := ToLeaderboard([]models.UserProgress{
		{UserID: "u1", CurrentXP: 500, CurrentLevel: 3, User: models.User{ID: "u1", Username: "alice"}},
		{UserID: "u2", CurrentXP: 20, CurrentLevel: 1},
	})
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", entries[0].User.Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "u2", entries[1].User.ID)
}

func TestToAssignmentListResponse(t *testing.T) {
	resp := ToAssignmentListResponse(nil, utils.NewPaginationParams(2, 20), 21)
	assert.Empty(t, resp.Assignments)
	assert.NotNil(t, resp.Assignments)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.EqualValues(t, 21, resp.Pagination.Total)
	assert.False(t, resp.Pagination.HasMore)
}
