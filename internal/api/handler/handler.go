package handler

import (
    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/invitefeed/internal/api/middleware"
    "github.com/d60-Lab/invitefeed/internal/auth"
    "github.com/d60-Lab/invitefeed/internal/service"
    "github.com/d60-Lab/invitefeed/pkg/apperror"
    "github.com/d60-Lab/invitefeed/pkg/response"
)

// Handler HTTP 层，只做请求/响应映射
type Handler struct {
    userService   service.UserService
    inviteService service.InviteService
    feedService   service.FeedService
    publisher     *service.Publisher
}

func New(users service.UserService, invites service.InviteService, feed service.FeedService, publisher *service.Publisher) *Handler {
    return &Handler{userService: users, inviteService: invites, feedService: feed, publisher: publisher}
}

// currentUser 取 JWTAuth 写入的身份；路由未挂中间件时按 401 处理
func currentUser(c *gin.Context) (*auth.Claims, bool) {
    claims, ok := middleware.ClaimsFrom(c)
    if !ok {
        response.Error(c, apperror.Unauthorized(apperror.CodeTokenRequired, "Token is required"))
        return nil, false
    }
    return claims, true
}
