package cfg

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// OverlayEnv 用环境变量覆盖配置
//
// 环境变量名由前缀和字段路径组成，驼峰转为下划线，例如
// storage.maxConns 对应 PREFIX_STORAGE_MAX_CONNS
func OverlayEnv(data map[string]any, prefix string, object any, lookup func(string) (string, bool)) error {
	rt := reflect.TypeOf(object)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return errors.Errorf("object must be a pointer to struct, got %T", object)
	}
	overlayStruct(data, rt, []string{strings.ToUpper(prefix)}, lookup)
	return nil
}

func overlayStruct(data map[string]any, rt reflect.Type, envPath []string, lookup func(string) (string, bool)) {
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldName(field)
		if name == "-" {
			continue
		}

		path := append(append([]string{}, envPath...), envName(name))
		ft := field.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}

		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Time{}) {
			// 只在有环境变量命中时创建子 map
			child := map[string]any{}
			if existing, ok := lookupKey(data, name); ok {
				if m, ok := data[existing].(map[string]any); ok {
					child = m
				}
			}
			overlayStruct(child, ft, path, lookup)
			if len(child) > 0 {
				if existing, ok := lookupKey(data, name); ok && existing != name {
					delete(data, existing)
				}
				data[name] = child
			}
			continue
		}

		if value, ok := lookup(strings.Join(path, "_")); ok {
			if existing, ok := lookupKey(data, name); ok {
				delete(data, existing)
			}
			data[name] = value
		}
	}
}

func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("cfg")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// envName maxConns -> MAX_CONNS, sslMode -> SSL_MODE, DSN -> DSN
func envName(name string) string {
	runes := []rune(name)
	var sb strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}
