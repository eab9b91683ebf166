package schema

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Tabler 结构体可以实现该接口指定表名
type Tabler interface {
	TableName() string
}

// StructProvider 基于 Go 结构体声明的 schema
//
// 支持的 tag 格式：
//   - `rdb:"column_name,type=string,size=255,required,primary,unique,default=0"`
//   - `rdb:"-"` 忽略字段
//   - `table:"table_name"` 任意字段上指定表名，也可以实现 Tabler
type StructProvider struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewStructProvider 从结构体列表创建 schema
func NewStructProvider(models ...any) (*StructProvider, error) {
	p := &StructProvider{tables: make(map[string]*Table, len(models))}
	for _, model := range models {
		if err := p.Register(model); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register 注册一个结构体，表名重复时报错
func (p *StructProvider) Register(model any) error {
	table, err := FromStruct(model)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tables[table.Name]; ok {
		return fmt.Errorf("table %s already registered", table.Name)
	}
	p.tables[table.Name] = table
	return nil
}

func (p *StructProvider) ListTables(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.tables))
	for name := range p.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *StructProvider) DescribeTable(ctx context.Context, name string) (*Table, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tables[name], nil
}

// FromStruct 从结构体构建表元数据
func FromStruct(v any) (*Table, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %T", v)
	}
	rt := rv.Type()

	tableName := ""
	if tabler, ok := v.(Tabler); ok {
		tableName = tabler.TableName()
	} else if tabler, ok := reflect.New(rt).Interface().(Tabler); ok {
		tableName = tabler.TableName()
	}
	if tableName == "" {
		tableName = tableNameFromTag(rt)
	}
	if tableName == "" {
		tableName = strings.ToLower(rt.Name())
	}

	var columns []Column
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("rdb")
		if tag == "-" {
			continue
		}

		column, err := parseFieldTag(field, tag)
		if err != nil {
			return nil, fmt.Errorf("failed to parse field %s: %v", field.Name, err)
		}
		columns = append(columns, column)
	}

	return NewTable(tableName, columns)
}

func tableNameFromTag(rt reflect.Type) string {
	for i := 0; i < rt.NumField(); i++ {
		if name := rt.Field(i).Tag.Get("table"); name != "" {
			return name
		}
	}
	return ""
}

// parseFieldTag 解析字段的 rdb tag
func parseFieldTag(field reflect.StructField, tag string) (Column, error) {
	fieldType := inferFieldType(field.Type)
	column := Column{
		Name:     field.Name,
		Nullable: field.Type.Kind() == reflect.Ptr || field.Type.Kind() == reflect.Map || field.Type.Kind() == reflect.Slice,
	}

	parts := strings.Split(tag, ",")
	if len(parts) > 0 && parts[0] != "" && !strings.Contains(parts[0], "=") {
		column.Name = strings.TrimSpace(parts[0])
		parts = parts[1:]
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if key, value, ok := strings.Cut(part, "="); ok {
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			switch key {
			case "type":
				fieldType = FieldType(value)
			case "size":
				size, err := strconv.Atoi(value)
				if err != nil {
					return column, fmt.Errorf("invalid size %q", value)
				}
				column.MaxLength = size
			case "default":
				column.HasDefault = true
			default:
				return column, fmt.Errorf("unknown option %q", key)
			}
			continue
		}

		switch part {
		case "required", "not_null":
			column.Nullable = false
		case "nullable":
			column.Nullable = true
		case "primary", "pk":
			column.PrimaryKey = true
		case "unique":
			column.Unique = true
		default:
			return column, fmt.Errorf("unknown option %q", part)
		}
	}

	column.Type = fieldType.Canonical()
	column.NativeType = string(fieldType)
	if column.Type != TypeText {
		column.MaxLength = 0
	}
	return column, nil
}

// inferFieldType 从 Go 类型推断字段类型
func inferFieldType(t reflect.Type) FieldType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return FieldTypeDate
	}

	switch t.Kind() {
	case reflect.String:
		return FieldTypeString
	case reflect.Int64, reflect.Uint64, reflect.Uint:
		return FieldTypeBigInt
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return FieldTypeInt
	case reflect.Float32, reflect.Float64:
		return FieldTypeFloat
	case reflect.Bool:
		return FieldTypeBool
	default:
		return FieldTypeJSON
	}
}
