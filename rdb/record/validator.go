package record

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/pkg/errors"
)

// Rule 单列的类型投影规则，返回的错误文本会作为校验失败的原因
type Rule func(value any) (Value, error)

// Validator 按表结构生成的校验器，每列一条规则
//
// 所有字段都是可选且可为空的，表中不存在的键原样透传为 Other
type Validator struct {
	table *schema.Table
	rules map[string]Rule
}

var validate = validator.New()

// NewValidator 根据表元数据构建校验器
func NewValidator(table *schema.Table) *Validator {
	rules := make(map[string]Rule, len(table.Columns))
	for i := range table.Columns {
		col := &table.Columns[i]
		rules[col.Name] = RuleFor(col)
	}
	return &Validator{table: table, rules: rules}
}

// RuleFor 返回列的规范类型对应的规则
func RuleFor(col *schema.Column) Rule {
	switch col.Type {
	case schema.TypeText:
		return textRule(col.MaxLength)
	case schema.TypeInteger:
		return func(value any) (Value, error) { return toInt(value, Integer) }
	case schema.TypeBigInt:
		return func(value any) (Value, error) { return toInt(value, BigInt) }
	case schema.TypeBoolean:
		return toBoolean
	case schema.TypeTimestamp:
		return toTimestamp
	case schema.TypeJSON:
		return toJSON
	default:
		return func(value any) (Value, error) { return Other(value), nil }
	}
}

// Validate 校验整行数据，错误按列的声明顺序报告
func (v *Validator) Validate(rec Record) (map[string]Value, error) {
	values := make(map[string]Value, len(rec))
	for i := range v.table.Columns {
		name := v.table.Columns[i].Name
		raw, ok := rec[name]
		if !ok {
			continue
		}
		value, err := v.ValidateField(name, raw)
		if err != nil {
			return nil, err
		}
		values[name] = value
	}

	var extras []string
	for key := range rec {
		if _, ok := v.rules[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		values[key] = Other(rec[key])
	}

	return values, nil
}

// ValidateField 校验单个字段
func (v *Validator) ValidateField(column string, raw any) (Value, error) {
	rule, ok := v.rules[column]
	if !ok {
		return Other(raw), nil
	}
	value, err := rule(raw)
	if err != nil {
		return Value{}, rdb.ErrValidationFailed(column, err.Error())
	}
	return value, nil
}

func textRule(maxLength int) Rule {
	return func(value any) (Value, error) {
		var s string
		switch val := value.(type) {
		case nil:
			return Null(), nil
		case string:
			s = val
		case []byte:
			s = string(val)
		default:
			return Value{}, errors.Errorf("expected string, got %s", typeName(value))
		}
		if maxLength > 0 {
			if err := validate.Var(s, fmt.Sprintf("max=%d", maxLength)); err != nil {
				return Value{}, errors.Errorf("length exceeds %d", maxLength)
			}
		}
		return Text(s), nil
	}
}

func toInt(value any, wrap func(int64) Value) (Value, error) {
	if value == nil {
		return Null(), nil
	}
	i, err := asInt64(value)
	if err != nil {
		return Value{}, err
	}
	return wrap(i), nil
}

func asInt64(value any) (int64, error) {
	switch val := value.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return 0, errors.Errorf("expected integer, got %q", val.String())
		}
		return floatToInt64(f)
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Errorf("expected integer, got %q", val)
		}
		return floatToInt64(f)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, errors.Errorf("integer %d out of range", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float())
	}
	return 0, errors.Errorf("expected integer, got %s", typeName(value))
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.Errorf("expected integer, got %v", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.Errorf("integer %v out of range", f)
	}
	return int64(f), nil
}

func toBoolean(value any) (Value, error) {
	switch val := value.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Boolean(val), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true":
			return Boolean(true), nil
		case "0", "false":
			return Boolean(false), nil
		}
		return Value{}, errors.Errorf("expected boolean, got %q", val)
	}

	i, err := asInt64(value)
	if err != nil || (i != 0 && i != 1) {
		return Value{}, errors.Errorf("expected boolean, got %v", value)
	}
	return Boolean(i == 1), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	// go-sqlite3 写入 time.Time 的格式
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toTimestamp(value any) (Value, error) {
	switch val := value.(type) {
	case nil:
		return Null(), nil
	case time.Time:
		return Timestamp(val.UnixMilli()), nil
	case *time.Time:
		if val == nil {
			return Null(), nil
		}
		return Timestamp(val.UnixMilli()), nil
	case string:
		s := strings.TrimSpace(val)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Timestamp(ms), nil
		}
		if t, ok := parseTime(s); ok {
			return Timestamp(t.UnixMilli()), nil
		}
		return Value{}, errors.Errorf("expected timestamp, got %q", val)
	case bool:
		return Value{}, errors.New("expected timestamp, got bool")
	}

	ms, err := asInt64(value)
	if err != nil {
		return Value{}, errors.Errorf("expected timestamp, got %v", value)
	}
	return Timestamp(ms), nil
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toJSON(value any) (Value, error) {
	switch val := value.(type) {
	case nil:
		return Null(), nil
	case string:
		return JSON(val), nil
	case []byte:
		return JSON(string(val)), nil
	case json.RawMessage:
		return JSON(string(val)), nil
	}
	buf, err := json.Marshal(value)
	if err != nil {
		return Value{}, errors.Wrap(err, "json.Marshal failed")
	}
	return JSON(string(buf)), nil
}

func typeName(value any) string {
	switch value.(type) {
	case bool:
		return "bool"
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", value)
}
