package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/middleware"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes 401 and returns nil when the request carries no identity.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}
