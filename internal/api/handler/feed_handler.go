package handler

import (
    "net/http"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/invitefeed/internal/model"
    "github.com/d60-Lab/invitefeed/pkg/response"
)

type feedResponse struct {
    Posts []model.Post `json:"posts"`
}

type createPostRequest struct {
    Body string `json:"body" binding:"required"`
}

type postResponse struct {
    Post *model.Post `json:"post"`
}

// Feed 关注的人的帖子，按时间倒序
// @Summary 时间线
// @Description 关注的人的帖子，按时间倒序
// @Tags 时间线
// @Produce json
// @Security BearerAuth
// @Success 200 {object} feedResponse
// @Failure 404 {object} response.Response "未关注任何人"
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/feed [get]
func (h *Handler) Feed(c *gin.Context) {
    claims, ok := currentUser(c)
    if !ok {
        return
    }
    posts, err := h.feedService.AssembleFeed(c.Request.Context(), claims.UserID)
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusOK, feedResponse{Posts: posts})
}

// CreatePost 发帖
// @Summary 发帖
// @Description 发帖
// @Tags 时间线
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} postResponse
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
    claims, ok := currentUser(c)
    if !ok {
        return
    }
    var req createPostRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, "post body must be 1-1000 characters")
        return
    }
    post, err := h.publisher.Publish(c.Request.Context(), claims.Username, req.Body)
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusCreated, postResponse{Post: post})
}
