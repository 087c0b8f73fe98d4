// Package response 提供统一的 HTTP 响应结构
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应体
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Error 失败响应，HTTP 状态码为 500
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), nil)
}

// ErrorWithStatus 带状态码的失败响应
func ErrorWithStatus(c *gin.Context, status int, msg string, detail any) {
	c.JSON(status, Body{
		Code:    status,
		Message: msg,
		Data:    detail,
	})
}
