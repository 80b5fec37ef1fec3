package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/questboard-api/internal/constants"
	apierrors "github.com/yukikurage/questboard-api/internal/errors"
	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/logger"
)

// RequireIdentity verifies the caller with the identity provider on every
// request and fails closed. The caller's authorized companies are cached in
// the session for ttl.
func RequireIdentity(provider identity.Provider, ttl time.Duration, log *logger.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = constants.DefaultMembershipTTL
	}
	log = log.With("middleware", "RequireIdentity")

	return func(c *gin.Context) {
		userID, err := provider.Authenticate(c.Request)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				apierrors.RespondWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeInvalidToken, "Invalid identity token"))
				return
			}
			apierrors.Unauthorized(c, "")
			return
		}

		session := sessions.Default(c)
		access, ok := cachedAccess(session, userID, ttl)
		if !ok {
			access, err = provider.AuthorizedCompanies(c.Request.Context(), userID)
			if err != nil {
				log.Warn("failed to load authorized companies", "user_id", userID, "error", err)
				if identity.IsUnavailable(err) {
					apierrors.ServiceUnavailable(c, "Identity provider unavailable")
					return
				}
				apierrors.InternalError(c, "Failed to resolve company access")
				return
			}
			if err := storeAccess(session, userID, access); err != nil {
				// the request can still proceed with the fresh list
				log.Warn("failed to cache company access", "user_id", userID, "error", err)
			}
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyAccessList, access)
		c.Next()
	}
}

func cachedAccess(session sessions.Session, userID string, ttl time.Duration) ([]identity.CompanyAccess, bool) {
	if cached, _ := session.Get(constants.SessionKeyUserID).(string); cached != userID {
		return nil, false
	}
	at, _ := session.Get(constants.SessionKeyAccessCachedAt).(int64)
	if at == 0 || time.Since(time.Unix(at, 0)) >= ttl {
		return nil, false
	}
	raw, _ := session.Get(constants.SessionKeyAccessList).(string)
	var access []identity.CompanyAccess
	if err := json.Unmarshal([]byte(raw), &access); err != nil {
		return nil, false
	}
	return access, true
}

func storeAccess(session sessions.Session, userID string, access []identity.CompanyAccess) error {
	raw, err := json.Marshal(access)
	if err != nil {
		return err
	}
	session.Set(constants.SessionKeyUserID, userID)
	session.Set(constants.SessionKeyAccessList, string(raw))
	session.Set(constants.SessionKeyAccessCachedAt, time.Now().Unix())
	return session.Save()
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetAccessList retrieves the caller's authorized companies from context
func GetAccessList(c *gin.Context) []identity.CompanyAccess {
	v, _ := c.Get(constants.ContextKeyAccessList)
	list, _ := v.([]identity.CompanyAccess)
	return list
}
