package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/dto"
	"github.com/yukikurage/questboard-api/internal/services"
)

type ProgressHandler struct {
	progress *services.ProgressService
}

func NewProgressHandler(progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GetProgress returns the caller's XP and level in the company
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	view, err := h.progress.Get(c.Request.Context(), userID, companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Leaderboard returns the top users by XP. Optional query: limit.
func (h *ProgressHandler) Leaderboard(c *gin.Context) {
	_, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	// out-of-range limits are clamped by the service
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := h.progress.Leaderboard(c.Request.Context(), companyID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": dto.ToLeaderboard(rows)})
}

// SyncRewards re-runs the reward hooks for the caller's current level
func (h *ProgressHandler) SyncRewards(c *gin.Context) {
	userID, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	grant, err := h.progress.SyncRewards(c.Request.Context(), userID, companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grant)
}
