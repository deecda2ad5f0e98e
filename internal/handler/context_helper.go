package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/middleware"
	appErrors "github.com/noah-isme/unisupport-api/pkg/errors"
	"github.com/noah-isme/unisupport-api/pkg/response"
)

// actorFromContext builds the caller identity from JWT claims, writing a 401
// and returning false when none are present.
func actorFromContext(c *gin.Context) (dto.Actor, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return dto.Actor{}, false
	}
	return dto.Actor{
		UserID:    claims.UserID,
		Username:  claims.Username,
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}
