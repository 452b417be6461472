package handler

import (
    "net/http"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/invitefeed/pkg/apperror"
    "github.com/d60-Lab/invitefeed/pkg/response"
)

type inviteLinkResponse struct {
    InviteLink string `json:"invite_link"`
}

type inviteCreatorResponse struct {
    Username string `json:"username"`
}

// GenerateInvite 生成一次性邀请链接
// @Summary 生成邀请
// @Description 生成一次性邀请链接
// @Tags 邀请
// @Produce json
// @Security BearerAuth
// @Success 200 {object} inviteLinkResponse
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/invites/generate [post]
func (h *Handler) GenerateInvite(c *gin.Context) {
    claims, ok := currentUser(c)
    if !ok {
        return
    }
    link, err := h.inviteService.Generate(c.Request.Context(), claims.UserID)
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusOK, inviteLinkResponse{InviteLink: link})
}

// RedeemInvite 兑换邀请，关注邀请创建者
// @Summary 兑换邀请（关注）
// @Description 兑换邀请，关注邀请创建者
// @Tags 邀请
// @Produce json
// @Security BearerAuth
// @Param inviteId path string true "邀请ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/invites/follow/{inviteId} [post]
func (h *Handler) RedeemInvite(c *gin.Context) {
    claims, ok := currentUser(c)
    if !ok {
        return
    }
    if _, err := h.inviteService.Redeem(c.Request.Context(), c.Param("inviteId"), claims.UserID); err != nil {
        // 兑换失败（含邀请不存在）统一 400
        if kind := apperror.KindOf(err); kind == apperror.KindNotFound || kind == apperror.KindConflict {
            response.BadRequest(c, apperror.PublicMessage(err))
            return
        }
        response.Error(c, err)
        return
    }
    response.Message(c, http.StatusOK, "Successfully followed user")
}

// GetInvite 查询邀请创建者（公开）
// @Summary 查询邀请
// @Description 查询邀请创建者（公开）
// @Tags 邀请
// @Produce json
// @Param inviteId path string true "邀请ID"
// @Success 200 {object} inviteCreatorResponse
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/invites/{inviteId} [get]
func (h *Handler) GetInvite(c *gin.Context) {
    name, err := h.inviteService.Lookup(c.Request.Context(), c.Param("inviteId"))
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusOK, inviteCreatorResponse{Username: name})
}
