package domain

import (
	"errors"
	"fmt"
)

// 错误码，稳定对外，接口层据此映射 HTTP 状态
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeStatusTransition = "STATUS_TRANSITION"
	CodeThirdParty       = "THIRD_PARTY_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError 带稳定错误码的领域错误
type DomainError struct {
	// 错误码
	Code string
	// 可直接展示的错误信息
	Message string
	// 底层错误
	Err error
}

// Error 实现 error 接口
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError 创建领域错误
func NewError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WrapError 包装底层错误
func WrapError(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// NewStatusTransitionError 创建状态流转错误
func NewStatusTransitionError(from, to Status) *DomainError {
	return &DomainError{
		Code:    CodeStatusTransition,
		Message: fmt.Sprintf("status transition from %s to %s is not allowed", from, to),
	}
}

// NewStatusNotEditableError 当前状态不允许编辑
func NewStatusNotEditableError(status Status) *DomainError {
	return &DomainError{
		Code:    CodeStatusTransition,
		Message: fmt.Sprintf("work order in status %s is not editable", status),
	}
}

// NewNotFoundError 资源不存在
func NewNotFoundError(what string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", what),
	}
}

// CodeOf 提取错误码，非领域错误一律视为内部错误
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf 提取可展示的错误信息
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
