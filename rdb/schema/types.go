package schema

import (
	"regexp"
	"strconv"
	"strings"
)

// CanonicalType 引擎内部的规范类型，与底层存储的原生类型名无关
type CanonicalType string

const (
	TypeText      CanonicalType = "text"
	TypeInteger   CanonicalType = "integer"
	TypeBoolean   CanonicalType = "boolean"
	TypeTimestamp CanonicalType = "timestamp"
	TypeJSON      CanonicalType = "json"
	TypeBigInt    CanonicalType = "bigint"
	TypeOther     CanonicalType = "other"
)

var (
	nativeTypeArgsRe = regexp.MustCompile(`\(([^)]*)\)`)
	nativeSpacesRe   = regexp.MustCompile(`\s+`)
)

var canonicalTypes = map[string]CanonicalType{
	"text":              TypeText,
	"varchar":           TypeText,
	"char":              TypeText,
	"character":         TypeText,
	"character varying": TypeText,
	"nchar":             TypeText,
	"nvarchar":          TypeText,
	"varying character": TypeText,
	"native character":  TypeText,
	"clob":              TypeText,
	"string":            TypeText,
	"uuid":              TypeText,
	"citext":            TypeText,
	"enum":              TypeText,
	"set":               TypeText,
	"tinytext":          TypeText,
	"mediumtext":        TypeText,
	"longtext":          TypeText,
	"name":              TypeText,

	"integer":     TypeInteger,
	"int":         TypeInteger,
	"smallint":    TypeInteger,
	"tinyint":     TypeInteger,
	"mediumint":   TypeInteger,
	"int2":        TypeInteger,
	"int4":        TypeInteger,
	"year":        TypeInteger,
	"serial":      TypeInteger,
	"serial4":     TypeInteger,
	"smallserial": TypeInteger,
	"serial2":     TypeInteger,

	"bigint":    TypeBigInt,
	"int8":      TypeBigInt,
	"bigserial": TypeBigInt,
	"serial8":   TypeBigInt,

	"boolean": TypeBoolean,
	"bool":    TypeBoolean,

	"timestamp":                   TypeTimestamp,
	"timestamptz":                 TypeTimestamp,
	"timestamp with time zone":    TypeTimestamp,
	"timestamp without time zone": TypeTimestamp,
	"datetime":                    TypeTimestamp,
	"date":                        TypeTimestamp,

	"json":  TypeJSON,
	"jsonb": TypeJSON,
}

// MapType 将驱动上报的原生类型名映射为规范类型
// 对任意输入都有定义，无法识别的类型返回 TypeOther 而不是报错
func MapType(native string) CanonicalType {
	name := strings.ToLower(strings.TrimSpace(native))
	if name == "" {
		return TypeOther
	}

	args := ""
	if m := nativeTypeArgsRe.FindStringSubmatch(name); m != nil {
		args = strings.TrimSpace(m[1])
	}
	name = nativeTypeArgsRe.ReplaceAllString(name, "")
	if strings.HasSuffix(name, "[]") || name == "array" {
		return TypeOther
	}
	for _, modifier := range []string{" unsigned", " zerofill", " signed"} {
		name = strings.ReplaceAll(name, modifier, "")
	}
	name = strings.TrimSpace(nativeSpacesRe.ReplaceAllString(name, " "))

	// MySQL 用 tinyint(1) / bit(1) 表示布尔
	if (name == "tinyint" || name == "bit") && args == "1" {
		return TypeBoolean
	}

	if t, ok := canonicalTypes[name]; ok {
		return t
	}
	return TypeOther
}

// MaxLength 从原生类型中解析字符长度上限，例如 varchar(255)，无法解析时返回 0
func MaxLength(native string) int {
	name := strings.ToLower(native)
	if MapType(name) != TypeText {
		return 0
	}
	m := nativeTypeArgsRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(m[1]))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// FieldType 结构体模型中声明的字段类型
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeBigInt FieldType = "bigint"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeDate   FieldType = "date"
	FieldTypeJSON   FieldType = "json"
)

// Canonical 将模型字段类型映射为规范类型
func (t FieldType) Canonical() CanonicalType {
	switch t {
	case FieldTypeString:
		return TypeText
	case FieldTypeInt:
		return TypeInteger
	case FieldTypeBigInt:
		return TypeBigInt
	case FieldTypeBool:
		return TypeBoolean
	case FieldTypeDate:
		return TypeTimestamp
	case FieldTypeJSON:
		return TypeJSON
	default:
		return MapType(string(t))
	}
}
