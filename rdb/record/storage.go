package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/dbadmin/rdb/schema"
)

// FromStorage 将驱动返回的原始值投影为列的规范类型
//
// 不同驱动对同一类型的返回值不同：sqlite 的布尔是 0/1，mysql 未开启 parseTime 时时间是 []byte，
// 无法识别的值保留为 Other，不会报错
func FromStorage(col *schema.Column, raw any) Value {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if raw == nil {
		return Null()
	}

	switch col.Type {
	case schema.TypeText:
		switch val := raw.(type) {
		case string:
			return Text(val)
		case time.Time:
			return Text(val.Format(time.RFC3339Nano))
		default:
			return Text(fmt.Sprint(val))
		}
	case schema.TypeInteger, schema.TypeBigInt:
		wrap := Integer
		if col.Type == schema.TypeBigInt {
			wrap = BigInt
		}
		if i, err := asInt64(raw); err == nil {
			return wrap(i)
		}
	case schema.TypeBoolean:
		switch val := raw.(type) {
		case bool:
			return Boolean(val)
		case string:
			switch strings.ToLower(val) {
			case "1", "t", "true", "y", "yes":
				return Boolean(true)
			case "0", "f", "false", "n", "no":
				return Boolean(false)
			}
		default:
			if i, err := asInt64(raw); err == nil {
				return Boolean(i != 0)
			}
		}
	case schema.TypeTimestamp:
		switch val := raw.(type) {
		case time.Time:
			return Timestamp(val.UnixMilli())
		case string:
			if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
				return Timestamp(ms)
			}
			if t, ok := parseTime(val); ok {
				return Timestamp(t.UnixMilli())
			}
		case float64:
			return Timestamp(int64(math.Round(val)))
		default:
			if ms, err := asInt64(raw); err == nil {
				return Timestamp(ms)
			}
		}
	case schema.TypeJSON:
		if s, ok := raw.(string); ok {
			return JSON(s)
		}
		if v, err := toJSON(raw); err == nil {
			return v
		}
	}

	return Other(raw)
}

// FromRow 按表结构投影一整行，用于对外输出
func FromRow(table *schema.Table, row map[string]any) Record {
	rec := make(Record, len(row))
	for key, raw := range row {
		col, ok := table.Column(key)
		if !ok {
			if b, isBytes := raw.([]byte); isBytes {
				raw = string(b)
			}
			rec[key] = raw
			continue
		}
		rec[key] = FromStorage(col, raw).Decode()
	}
	return rec
}
