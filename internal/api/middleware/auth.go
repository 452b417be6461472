package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/invitefeed/internal/auth"
	"github.com/d60-Lab/invitefeed/pkg/apperror"
	"github.com/d60-Lab/invitefeed/pkg/logger"
	"github.com/d60-Lab/invitefeed/pkg/response"
)

const claimsKey = "auth.claims"

var (
	errTokenRequired = apperror.Unauthorized(apperror.CodeTokenRequired, "Token is required")
	errTokenInvalid  = apperror.Forbidden(apperror.CodeTokenInvalid, "Invalid token")
)

// JWTAuth 校验 Authorization: Bearer <token>。缺失返回 401，无效或过期返回 403。
func JWTAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			response.Abort(c, errTokenRequired)
			return
		}

		scheme, raw, _ := strings.Cut(header, " ")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			response.Abort(c, errTokenRequired)
			return
		}
		if !strings.EqualFold(scheme, "Bearer") {
			response.Abort(c, errTokenInvalid)
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			logger.Debug("token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			response.Abort(c, errTokenInvalid)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom 返回 JWTAuth 写入的身份
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
