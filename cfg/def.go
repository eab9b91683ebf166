package cfg

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// SetDefaults 为零值字段填充 def tag 中的默认值
// 嵌套结构体递归处理；nil 的结构体指针保持为 nil，除非字段本身带有 def tag
func SetDefaults(object any) error {
	if object == nil {
		return fmt.Errorf("object cannot be nil")
	}
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer, got %T", object)
	}
	return setDefaults(rv.Elem())
}

func setDefaults(rv reflect.Value) error {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)
		if !value.CanSet() || field.Tag.Get("cfg") == "-" {
			continue
		}

		if isStruct(value.Type()) {
			if err := setDefaults(value); err != nil {
				return fmt.Errorf("%s.%v", field.Name, err)
			}
			continue
		}

		def, ok := field.Tag.Lookup("def")
		if !ok || !value.IsZero() {
			continue
		}
		if value.Kind() == reflect.Ptr {
			value.Set(reflect.New(value.Type().Elem()))
			value = value.Elem()
		}
		if err := setDefaultValue(value, def); err != nil {
			return fmt.Errorf("%s: %v", field.Name, err)
		}
	}
	return nil
}

func isStruct(rt reflect.Type) bool {
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt.Kind() == reflect.Struct && rt != reflect.TypeOf(time.Time{})
}

func setDefaultValue(rv reflect.Value, def string) error {
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(def)
	case reflect.Bool:
		val, err := strconv.ParseBool(def)
		if err != nil {
			return fmt.Errorf("invalid bool value %q", def)
		}
		rv.SetBool(val)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Type() == durationType {
			duration, err := time.ParseDuration(def)
			if err != nil {
				return fmt.Errorf("invalid duration value %q", def)
			}
			rv.SetInt(int64(duration))
			return nil
		}
		val, err := strconv.ParseInt(def, 0, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int value %q", def)
		}
		rv.SetInt(val)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(def, 0, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid uint value %q", def)
		}
		rv.SetUint(val)
	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(def, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value %q", def)
		}
		rv.SetFloat(val)
	case reflect.Slice:
		parts := strings.Split(def, ",")
		slice := reflect.MakeSlice(rv.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setDefaultValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
				return fmt.Errorf("element %d: %v", i, err)
			}
		}
		rv.Set(slice)
	default:
		return fmt.Errorf("unsupported default for type %v", rv.Type())
	}
	return nil
}
