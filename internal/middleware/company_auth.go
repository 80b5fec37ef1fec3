package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/constants"
	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/logger"
)

// CompanySyncer creates local rows for a user and company on first sight.
type CompanySyncer interface {
	Ensure(ctx context.Context, userID, companyID string) error
}

// RequireCompanyAccess checks that :company_id is one of the caller's
// authorized companies, then makes sure the local rows exist.
func RequireCompanyAccess(syncer CompanySyncer, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequireCompanyAccess")

	return func(c *gin.Context) {
		companyID := c.Param("company_id")
		if companyID == "" {
			apierrors.BadRequest(c, "Missing company ID")
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		access, ok := identity.Find(GetAccessList(c), companyID)
		if !ok {
			// 404 rather than 403 to avoid leaking company existence
			apierrors.NotFound(c, "Company not found")
			return
		}

		if syncer != nil {
			if err := syncer.Ensure(c.Request.Context(), userID, companyID); err != nil {
				log.Error("failed to sync company membership", "user_id", userID, "company_id", companyID, "error", err)
				apierrors.PersistenceFailure(c, "Failed to initialize company data")
				return
			}
		}

		c.Set(constants.ContextKeyCompanyID, companyID)
		c.Set(constants.ContextKeyCompanyRole, access.Role)
		c.Next()
	}
}

// RequireCompanyAdmin allows only owners and admins of the company
func RequireCompanyAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(constants.ContextKeyCompanyRole)
		if !exists {
			apierrors.Forbidden(c, "Company access required")
			return
		}
		r, _ := role.(identity.Role)
		if !(identity.CompanyAccess{Role: r}).IsAdmin() {
			apierrors.Forbidden(c, "Only company admins can perform this action")
			return
		}
		c.Next()
	}
}

// GetCompanyID retrieves the authorized company ID from context
func GetCompanyID(c *gin.Context) (string, bool) {
	v, exists := c.Get(constants.ContextKeyCompanyID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
