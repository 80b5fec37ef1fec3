package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/dto"
	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/services"
)

type LevelHandler struct {
	levels *services.LevelService
}

func NewLevelHandler(levels *services.LevelService) *LevelHandler {
	return &LevelHandler{levels: levels}
}

// ListLevels returns the company's level table
func (h *LevelHandler) ListLevels(c *gin.Context) {
	_, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	levels, err := h.levels.List(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"levels": dto.ToLevelDTOs(levels)})
}

// ReplaceLevels swaps the whole level table. Admin only.
func (h *LevelHandler) ReplaceLevels(c *gin.Context) {
	_, companyID, ok := companyScope(c)
	if !ok {
		return
	}

	type ReplaceLevelsRequest struct {
		Levels []services.LevelInput `json:"levels" binding:"required"`
	}

	var req ReplaceLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	levels, err := h.levels.Replace(c.Request.Context(), companyID, req.Levels)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"levels": dto.ToLevelDTOs(levels)})
}
