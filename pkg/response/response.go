package response

import (
	"net/http"

	"socialhub/pkg/apperror"
	"socialhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败响应 (HTTP 200, 业务码非 0)
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// FromError 按错误类别映射 HTTP 状态码与业务码
func FromError(c *gin.Context, err error) {
	switch apperror.KindOf(err) {
	case apperror.NotFound:
		Error(c, http.StatusNotFound, ErrNotFound, err.Error())
	case apperror.Forbidden:
		Error(c, http.StatusForbidden, ErrNoPermission, err.Error())
	case apperror.InvalidArgument:
		Error(c, http.StatusBadRequest, ErrInvalidParam, err.Error())
	case apperror.PreconditionFailed:
		Error(c, http.StatusPreconditionFailed, ErrPrecondition, err.Error())
	case apperror.Conflict, apperror.Unavailable:
		logger.Log.Warn("storage unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, http.StatusServiceUnavailable, ErrUnavailable, "service temporarily unavailable, please retry")
	default:
		logger.Log.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		Error(c, http.StatusInternalServerError, ErrServerInternal, "internal server error")
	}
}
