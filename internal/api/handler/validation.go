package handler

import (
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/invitefeed/pkg/apperror"
)

var registerOnce sync.Once

// RegisterValidators 注册自定义校验规则到 gin 的 validator 引擎
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("username", validUsername)
		}
	})
}

// validUsername 用户名会出现在 /profile/:username 路径中，不允许空白与斜杠
func validUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	for _, r := range s {
		if unicode.IsSpace(r) || r == '/' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// bindError 将绑定错误转换为 apperror；缺少必填字段返回 missing
func bindError(err error, missing *apperror.Error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation(apperror.CodeInvalidInput, "invalid request body")
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return missing
		}
	}
	return apperror.Validation(apperror.CodeInvalidInput, "Invalid "+strings.ToLower(verrs[0].Field()))
}
