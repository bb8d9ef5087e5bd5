package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// errorMessageEstimateLen 单条错误消息的预估长度，用于预分配
const errorMessageEstimateLen = 48

// ValidationContext 一次验证过程的错误收集上下文
type ValidationContext struct {
	// Errors 所有验证错误的集合
	Errors []*FieldError `json:"errors,omitempty"`
}

// FieldError 单个字段的验证错误
type FieldError struct {
	// FieldName 结构体字段名
	FieldName string `json:"field_name,omitempty"`
	// JsonName 描述符/配置中的键名
	JsonName string `json:"json_name"`
	// Tag 验证标签（如 required, oneof 等）
	Tag string `json:"tag"`
	// Param 验证参数（如 oneof=a b 中的 "a b"）
	Param string `json:"param,omitempty"`
	// Value 字段的实际值
	Value any `json:"value,omitempty"`
	// Message 友好的错误消息
	Message string `json:"message,omitempty"`
	// Namespace 字段的完整命名空间（如 ApplicationMetaData.beans[0].ejb-name）
	Namespace string `json:"namespace,omitempty"`
}

// NewValidationContext 创建验证上下文
func NewValidationContext() *ValidationContext {
	return &ValidationContext{
		Errors: make([]*FieldError, 0),
	}
}

// NewFieldError 创建字段错误
func NewFieldError(value any, fieldName, jsonName, tag, param string) *FieldError {
	return &FieldError{
		FieldName: fieldName,
		JsonName:  jsonName,
		Tag:       tag,
		Param:     param,
		Value:     value,
		Namespace: jsonName,
	}
}

// String 返回友好的错误信息
func (fe *FieldError) String() string {
	name := fe.Namespace
	if name == "" {
		name = fe.JsonName
	}
	if fe.Message != "" {
		return fmt.Sprintf("field '%s': %s", name, fe.Message)
	}
	if fe.Param != "" {
		return fmt.Sprintf("field '%s' validation failed on tag '%s' (%s)", name, fe.Tag, fe.Param)
	}
	return fmt.Sprintf("field '%s' validation failed on tag '%s'", name, fe.Tag)
}

// WithMessage 设置消息
func (fe *FieldError) WithMessage(message string) *FieldError {
	fe.Message = message
	return fe
}

// HasErrors 检查是否有验证错误
func (vc *ValidationContext) HasErrors() bool {
	return len(vc.Errors) > 0
}

// AddError 通过 FieldError 添加字段错误
func (vc *ValidationContext) AddError(err *FieldError) {
	if err != nil {
		vc.Errors = append(vc.Errors, err)
	}
}

// AddErrorByValidator 通过 validator.FieldError 添加字段错误
func (vc *ValidationContext) AddErrorByValidator(e validator.FieldError) {
	vc.Errors = append(vc.Errors, &FieldError{
		FieldName: e.StructField(),
		JsonName:  e.Field(),
		Tag:       e.Tag(),
		Param:     e.Param(),
		Value:     e.Value(),
		Namespace: e.Namespace(),
	})
}

// AddErrorByDetail 通过详细信息添加字段错误
func (vc *ValidationContext) AddErrorByDetail(value any, field, json, tag, param, message, namespace string) {
	vc.Errors = append(vc.Errors, &FieldError{
		FieldName: field,
		JsonName:  json,
		Tag:       tag,
		Param:     param,
		Value:     value,
		Message:   message,
		Namespace: namespace,
	})
}

// ErrorList 字段错误列表，实现 error 接口
type ErrorList []*FieldError

// Error 实现 error 接口
func (l ErrorList) Error() string {
	if len(l) == 0 {
		return "validation passed: no errors"
	}

	var builder strings.Builder
	builder.Grow(len(l) * errorMessageEstimateLen)
	for i, err := range l {
		if i > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(err.String())
	}
	return builder.String()
}

// ByTag 按验证标签筛选错误
func (l ErrorList) ByTag(tag string) []*FieldError {
	var result []*FieldError
	for _, err := range l {
		if err.Tag == tag {
			result = append(result, err)
		}
	}
	return result
}
