// Package response 提供统一的 HTTP 响应包络 {success, code, message, data}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope 统一响应结构
type Envelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Code:    "OK",
		Data:    data,
	})
}

// SuccessWithMessage 返回带提示信息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Code:    "OK",
		Message: message,
		Data:    data,
	})
}

// Error 返回业务失败响应，HTTP 状态保持 200，由 code 区分错误类型
func Error(c *gin.Context, code, message string) {
	c.JSON(http.StatusOK, Envelope{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// ErrorWithStatus 返回指定 HTTP 状态码的失败响应
func ErrorWithStatus(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Code:    code,
		Message: message,
	})
}
