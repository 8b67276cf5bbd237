// Package types 定义服务层共享的类型和错误
package types

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ValidationError 字段级校验错误，对应 HTTP 400
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError 创建校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalError 外部服务（LLM、Embedding、搜索）调用失败
// 异步任务内部按固定次数重试，不同步暴露给调用方
type ExternalError struct {
	Service string
	Err     error
}

// Error 实现 error 接口
func (e *ExternalError) Error() string {
	return fmt.Sprintf("external service %s: %v", e.Service, e.Err)
}

// Unwrap 返回底层错误
func (e *ExternalError) Unwrap() error {
	return e.Err
}

// NewExternalError 创建外部服务错误
func NewExternalError(service string, err error) *ExternalError {
	return &ExternalError{Service: service, Err: err}
}

// IsExternal 判断是否为外部服务错误
func IsExternal(err error) bool {
	var ee *ExternalError
	return errors.As(err, &ee)
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
