package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ============================================================================
// 核心验证接口
// ============================================================================

// CustomValidator 自定义验证器接口 - 跨字段验证
// 用途：验证多个字段之间的关系和约束，例如部署描述符中
// "prim-key-field 只能出现在 CMP 实体上"、"接口必须成对声明" 这类规则
//
// 示例：
//
//	func (e *EntityMetaData) CustomValidation(report FuncReportError) {
//	    if e.PrimKeyField != "" && !e.IsCMP() {
//	        report("entity.prim-key-field", "cmp_only", "")
//	    }
//	}
type CustomValidator interface {
	// CustomValidation 执行跨字段验证逻辑，所有错误都通过 report 报告
	CustomValidation(report FuncReportError)
}

// FuncReportError 错误报告函数类型
//
// 参数：
//   - namespace: 命名空间（字段路径，如 "session.home"）
//   - tag: 验证标签（如："required", "paired"）
//   - param: 验证参数
type FuncReportError func(namespace, tag, param string)

// Validator 结构体验证器
// 设计原则：
//   - 单例模式：默认验证器全局唯一，减少资源消耗
//   - 工厂模式：New() 创建独立实例
//
// 特性：
//   - 基于 go-playground/validator 的 struct tag 验证
//   - 递归验证切片中的结构体元素（dive）
//   - 支持 CustomValidator 跨字段验证，错误统一收集后返回
type Validator struct {
	// validate 底层验证器实例（go-playground/validator）
	validate *validator.Validate
	// customCache 类型是否实现 CustomValidator 的缓存，key: reflect.Type
	customCache *sync.Map
}

var (
	// defaultValidator 默认验证器实例，全局单例
	defaultValidator *Validator
	// once 确保默认验证器只初始化一次（线程安全）
	once sync.Once
)

// Default 获取默认验证器实例（单例模式）
func Default() *Validator {
	once.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// Validate 使用默认验证器验证对象
func Validate(obj any) []*FieldError {
	return Default().Validate(obj)
}

// Check 使用默认验证器验证对象，失败时返回 ErrorList
func Check(obj any) error {
	return Default().Check(obj)
}

// New 创建新的验证器实例
func New() *Validator {
	v := validator.New()

	// 使用 json / yaml / mapstructure tag 作为字段名
	// 这样错误消息中显示的是描述符或配置文件里的键名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "yaml", "mapstructure"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{
		validate:    v,
		customCache: &sync.Map{},
	}
}

// Validate 验证结构体
//
// 验证流程（按顺序执行）：
//  1. struct tag 规则验证（go-playground/validator，含 dive 递归）
//  2. CustomValidator 跨字段验证
//
// 错误收集策略：收集所有错误后统一返回，而非遇到第一个错误就停止
//
// 返回：验证错误列表，nil 表示验证通过
func (v *Validator) Validate(obj any) []*FieldError {
	if obj == nil {
		return []*FieldError{
			NewFieldError(nil, "", "", "required", "").
				WithMessage("validation target cannot be nil"),
		}
	}

	ctx := NewValidationContext()

	if err := v.validate.Struct(obj); err != nil {
		v.addFieldErrors(err, ctx)
	}

	if v.isCustomValidator(obj) {
		obj.(CustomValidator).CustomValidation(func(namespace, tag, param string) {
			ctx.AddErrorByDetail(nil, "", namespace, tag, param, "", namespace)
		})
	}

	if ctx.HasErrors() {
		return ctx.Errors
	}
	return nil
}

// Check 验证结构体，失败时返回 ErrorList（实现 error 接口）
func (v *Validator) Check(obj any) error {
	if errs := v.Validate(obj); len(errs) > 0 {
		return ErrorList(errs)
	}
	return nil
}

// Var 验证单个值
func (v *Validator) Var(value any, rule string) error {
	return v.validate.Var(value, rule)
}

// RegisterValidation 注册自定义标签
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

// isCustomValidator 判断对象是否实现 CustomValidator（按类型缓存）
func (v *Validator) isCustomValidator(obj any) bool {
	typ := reflect.TypeOf(obj)
	if cached, ok := v.customCache.Load(typ); ok {
		return cached.(bool)
	}
	_, ok := obj.(CustomValidator)
	v.customCache.Store(typ, ok)
	return ok
}

// addFieldErrors 将底层验证器的错误转换为内部错误类型
func (v *Validator) addFieldErrors(err error, ctx *ValidationContext) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		ctx.AddErrorByDetail(nil, "", "", "", "", err.Error(), "")
		return
	}

	for _, e := range validationErrors {
		ctx.AddErrorByValidator(e)
	}
}
