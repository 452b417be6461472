package handler

import (
    "net/http"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/invitefeed/internal/service"
    "github.com/d60-Lab/invitefeed/pkg/response"
)

type registerRequest struct {
    Username string `json:"username" binding:"required,max=50,username"`
    Email    string `json:"email" binding:"required,email,max=255"`
    Password string `json:"password" binding:"required"`
}

type loginRequest struct {
    Email    string `json:"email" binding:"required"`
    Password string `json:"password" binding:"required"`
}

type userView struct {
    ID       string `json:"id"`
    Username string `json:"username"`
    Email    string `json:"email"`
}

type registerResponse struct {
    Message string   `json:"message"`
    User    userView `json:"user"`
}

type loginResponse struct {
    Message string `json:"message"`
    Token   string `json:"token"`
}

// Register 注册
// @Summary 用户注册
// @Description 注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} registerResponse
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
    var req registerRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.Error(c, bindError(err, service.ErrMissingFields))
        return
    }
    u, err := h.userService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusCreated, registerResponse{
        Message: "User registered successfully",
        User:    userView{ID: u.ID, Username: u.Username, Email: u.Email},
    })
}

// Login 登录并签发令牌
// @Summary 用户登录
// @Description 登录并签发令牌
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} loginResponse
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
    var req loginRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.Error(c, bindError(err, service.ErrMissingLogin))
        return
    }
    token, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusOK, loginResponse{Message: "Login successful", Token: token})
}

// MyProfile 当前登录用户主页
// @Summary 我的主页
// @Description 当前登录用户主页
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Profile
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profile [get]
func (h *Handler) MyProfile(c *gin.Context) {
    claims, ok := currentUser(c)
    if !ok {
        return
    }
    p, err := h.userService.ProfileByID(c.Request.Context(), claims.UserID)
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusOK, p)
}

// UserProfile 指定用户主页；任意有效令牌均可查看
// @Summary 用户主页
// @Description 指定用户主页；任意有效令牌均可查看
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param username path string true "用户名"
// @Success 200 {object} service.Profile
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /profile/{username} [get]
func (h *Handler) UserProfile(c *gin.Context) {
    if _, ok := currentUser(c); !ok {
        return
    }
    p, err := h.userService.Profile(c.Request.Context(), c.Param("username"))
    if err != nil {
        response.Error(c, err)
        return
    }
    response.JSON(c, http.StatusOK, p)
}
