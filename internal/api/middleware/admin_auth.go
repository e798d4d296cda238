package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/supercore/supercore-api/internal/auth"
	"github.com/supercore/supercore-api/internal/models"
	pgrepo "github.com/supercore/supercore-api/internal/repositories/postgres"
	"github.com/supercore/supercore-api/internal/utils"
)

type apiError struct {
	Code          utils.Code `json:"code"`
	StatusMessage string     `json:"statusMessage"`
}

const (
	CtxIdentity = "identity"
	CtxProfile  = "profile"
)

// AdminAuth resolves the request identity and enforces the admin-only
// policy. The check runs on every privileged request; the decision is
// never cached across requests because role can change between them.
func AdminAuth(resolver *auth.Resolver, profiles pgrepo.ProfileRepository, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolver.Configured() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:          utils.CodeInternal,
				StatusMessage: "SUPABASE_JWT_SECRET is not set",
			})
			return
		}

		identity := resolver.Resolve(c.Request)
		if identity == nil {
			log.WithFields(logrus.Fields{
				"path":       c.FullPath(),
				"has_cookie": c.GetHeader("Cookie") != "",
			}).Warn("admin auth: no identity resolved")
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:          utils.CodeUnauthorized,
				StatusMessage: "未授权：请先登录",
			})
			return
		}

		profile, err := profiles.GetByID(c.Request.Context(), identity.ID)
		if err != nil || profile == nil || profile.Role != models.RoleAdmin {
			if err != nil && !errors.Is(err, utils.ErrNotFound) {
				log.WithError(err).WithField("user_id", identity.ID).Error("admin auth: role lookup failed")
			}
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:          utils.CodeForbidden,
				StatusMessage: "禁止访问：需要管理员权限",
			})
			return
		}

		// handlers reuse these; no second lookup
		c.Set(CtxIdentity, identity)
		c.Set(CtxProfile, profile)
		c.Next()
	}
}
