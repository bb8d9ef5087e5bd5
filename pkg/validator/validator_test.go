package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taggedSpec 带 tag 规则的测试结构
type taggedSpec struct {
	Name    string   `json:"ejb-name" validate:"required"`
	Kind    string   `yaml:"kind" validate:"omitempty,oneof=session entity"`
	Classes []string `mapstructure:"classes" validate:"dive,required"`
	Secret  string   `json:"-" validate:"max=3"`
}

// pairedSpec 通过 CustomValidator 检查成对字段
type pairedSpec struct {
	Home   string `json:"home"`
	Remote string `json:"remote"`
}

func (p *pairedSpec) CustomValidation(report FuncReportError) {
	if (p.Home == "") != (p.Remote == "") {
		report("remote", "paired", "home")
	}
}

func tags(errs []*FieldError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Tag)
	}
	return out
}

func TestValidate(t *testing.T) {
	t.Run("通过", func(t *testing.T) {
		assert.Nil(t, Validate(&taggedSpec{Name: "Teller", Kind: "session", Classes: []string{"a"}}))
	})

	t.Run("字段名取自标签", func(t *testing.T) {
		errs := Validate(&taggedSpec{Kind: "mdb", Classes: []string{""}, Secret: "long"})
		require.Len(t, errs, 4)

		names := map[string]string{}
		for _, e := range errs {
			names[e.Tag+":"+e.FieldName] = e.JsonName
		}
		assert.Equal(t, "ejb-name", names["required:Name"])
		assert.Equal(t, "kind", names["oneof:Kind"])
		assert.Equal(t, "classes[0]", names["required:Classes[0]"])
		assert.Equal(t, "Secret", names["max:Secret"])
	})

	t.Run("空对象", func(t *testing.T) {
		errs := Validate(nil)
		require.Len(t, errs, 1)
		assert.Equal(t, "required", errs[0].Tag)
	})

	t.Run("跨字段验证", func(t *testing.T) {
		assert.Nil(t, Validate(&pairedSpec{}))
		assert.Nil(t, Validate(&pairedSpec{Home: "H", Remote: "R"}))

		errs := Validate(&pairedSpec{Home: "H"})
		require.Len(t, errs, 1)
		assert.Equal(t, "paired", errs[0].Tag)
		assert.Equal(t, "remote", errs[0].Namespace)
	})
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(&pairedSpec{}))

	err := Check(&pairedSpec{Remote: "R"})
	require.Error(t, err)
	var list ErrorList
	require.True(t, errors.As(err, &list))
	assert.Equal(t, []string{"paired"}, tags(list))
	assert.Contains(t, err.Error(), "field 'remote' validation failed on tag 'paired' (home)")
	assert.Len(t, list.ByTag("paired"), 1)
	assert.Empty(t, list.ByTag("required"))
}

func TestRegisterValidation(t *testing.T) {
	v := New()
	require.NoError(t, v.RegisterValidation("javaident", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && (s[0] < '0' || s[0] > '9')
	}))
	assert.NoError(t, v.Var("balance", "javaident"))
	assert.Error(t, v.Var("9lives", "javaident"))
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestFieldErrorString(t *testing.T) {
	fe := NewFieldError("x", "Name", "ejb-name", "required", "")
	assert.Equal(t, "field 'ejb-name' validation failed on tag 'required'", fe.String())
	fe.WithMessage("duplicate ejb-name")
	assert.Equal(t, "field 'ejb-name': duplicate ejb-name", fe.String())
	assert.Equal(t, "validation passed: no errors", ErrorList(nil).Error())
}
