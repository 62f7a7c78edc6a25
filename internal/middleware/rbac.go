package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

// RequireRoles admits callers whose token carries one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return authorize(roles, "")
}

// RequireRolesOrSelf additionally admits a caller whose user id equals the
// named path parameter, so patients can read their own records.
func RequireRolesOrSelf(param string, roles ...models.UserRole) gin.HandlerFunc {
	return authorize(roles, param)
}

func authorize(roles []models.UserRole, selfParam string) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		claims, ok := value.(*models.JWTClaims)
		if !exists || !ok || claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}
		if selfParam != "" && claims.UserID != "" && c.Param(selfParam) == claims.UserID {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not access this resource"))
	}
}
