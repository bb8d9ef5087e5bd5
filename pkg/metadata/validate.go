package metadata

import (
	"fmt"

	"ejb-verifier/pkg/validator"
)

// Validate 验证应用元数据：版本合法、ejb-name 唯一、每个 Bean 的结构约束
// 所有错误一并收集后返回包装了 ErrInvalidDescriptor 的错误
func Validate(app *ApplicationMetaData) error {
	if app == nil {
		return fmt.Errorf("%w: nil application metadata", ErrInvalidDescriptor)
	}

	var errs validator.ErrorList
	if _, ok := NormalizeVersion(app.Version); !ok {
		errs = append(errs, validator.NewFieldError(app.Version, "Version", "version", "oneof", "1.1 2.0 2.1"))
	}

	names := make(map[string]struct{}, len(app.Beans))
	for i, bean := range app.Beans {
		if bean == nil {
			errs = append(errs, validator.NewFieldError(nil, "", fmt.Sprintf("beans[%d]", i), "required", ""))
			continue
		}
		for _, fe := range validator.Validate(bean) {
			fe.Namespace = fmt.Sprintf("beans[%d].%s", i, fe.Namespace)
			errs = append(errs, fe)
		}
		name := bean.EJBName()
		if name == "" {
			continue
		}
		if _, dup := names[name]; dup {
			errs = append(errs, validator.NewFieldError(name, "Name", fmt.Sprintf("beans[%d].ejb-name", i), "unique", "").
				WithMessage(fmt.Sprintf("duplicate ejb-name %q", name)))
		}
		names[name] = struct{}{}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, errs)
	}
	return nil
}

// normalize 填充依赖描述符版本的默认值
func normalize(app *ApplicationMetaData) {
	if v, ok := NormalizeVersion(app.Version); ok {
		app.Version = v
	}
	for _, bean := range app.Beans {
		e, ok := bean.(*EntityMetaData)
		if !ok || !e.IsCMP() || e.CMPVersionValue != "" {
			continue
		}
		// 1.1 描述符中没有 cmp-version，CMP 实体一律按 1.x 处理
		if app.Version == Version11 {
			e.CMPVersionValue = CMPVersion1x
		} else {
			e.CMPVersionValue = CMPVersion2x
		}
	}
}
