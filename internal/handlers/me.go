package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/dto"
	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/middleware"
	"github.com/yukikurage/questboard-api/internal/services"
)

type MeHandler struct {
	sync *services.SyncService
}

func NewMeHandler(sync *services.SyncService) *MeHandler {
	return &MeHandler{sync: sync}
}

// GetMe returns the caller and their authorized companies. Callers not yet
// seen in any company get their fallback name.
func (h *MeHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user := dto.UserDTO{ID: userID, Username: identity.FallbackUsername(userID)}
	stored, err := h.sync.GetUser(c.Request.Context(), userID)
	switch {
	case err == nil:
		user = dto.ToUserDTO(*stored)
	case errors.Is(err, services.ErrUserNotFound):
	default:
		respondServiceError(c, err)
		return
	}

	companies := middleware.GetAccessList(c)
	if companies == nil {
		companies = []identity.CompanyAccess{}
	}
	c.JSON(http.StatusOK, dto.MeDTO{User: user, Companies: companies})
}
