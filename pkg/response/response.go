package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/invitefeed/pkg/apperror"
	"github.com/d60-Lab/invitefeed/pkg/logger"
)

// Response 错误或提示类响应体
type Response struct {
	Message string `json:"message"`
}

func JSON(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Message: msg})
}

func BadRequest(c *gin.Context, msg string) {
	Message(c, http.StatusBadRequest, msg)
}

// InternalError 记录原始错误，对外只返回通用信息
func InternalError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	Message(c, http.StatusInternalServerError, "Internal server error")
}

// Error 按 apperror.Kind 映射状态码
func Error(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		InternalError(c, err)
		return
	}
	Message(c, kind.HTTPStatus(), apperror.PublicMessage(err))
}

// Abort 同 Error，并终止后续 handler
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
