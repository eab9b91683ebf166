package cfg

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator 校验错误中的字段名使用 cfg tag，与配置文件中的键一致
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := fieldName(field)
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 按 validate tag 校验结构体，非结构体直接通过
func Validate(object any) error {
	rv := reflect.ValueOf(object)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(rv.Interface())
}
