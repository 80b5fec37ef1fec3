package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/middleware"
	"github.com/yukikurage/questboard-api/internal/services"
)

func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		code := apierrors.ErrCodeInvalidInput
		if errors.Is(err, services.ErrInvalidLevelTable) {
			code = apierrors.ErrCodeInvalidLevels
		}
		apierrors.BadRequestWithCode(c, code, verr.Reason)
	case errors.Is(err, services.ErrInvalidVoteDirection):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		apierrors.PayloadTooLarge(c, err.Error())
	case errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoRewardAtLevel):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUploadFailed):
		apierrors.BadGateway(c, apierrors.ErrCodeUploadFailed, "File upload failed")
	case errors.Is(err, services.ErrPersistence):
		apierrors.PersistenceFailure(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}

// companyScope returns the caller and the company resolved by the middleware.
func companyScope(c *gin.Context) (userID, companyID string, ok bool) {
	userID, uok := middleware.GetUserID(c)
	companyID, cok := middleware.GetCompanyID(c)
	if !uok || !cok {
		apierrors.Unauthorized(c, "Not authenticated")
		return "", "", false
	}
	return userID, companyID, true
}
