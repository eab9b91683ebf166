// Package record 行数据的类型化表示与校验
package record

import (
	"encoding/json"
	"fmt"
)

// Record 通用行数据，键为列名
type Record = map[string]any

// Kind 值的类别，与规范类型一一对应
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInteger
	KindBigInt
	KindBoolean
	KindTimestamp
	KindJSON
	KindOther
)

var kindNames = [...]string{"null", "text", "integer", "bigint", "boolean", "timestamp", "json", "other"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value 经过类型投影后的列值
//
// Timestamp 保存毫秒时间戳，JSON 保存序列化后的文本
type Value struct {
	kind Kind
	v    any
}

func Null() Value { return Value{kind: KindNull} }
func Text(s string) Value { return Value{kind: KindText, v: s} }
func Integer(i int64) Value { return Value{kind: KindInteger, v: i} }
func BigInt(i int64) Value { return Value{kind: KindBigInt, v: i} }
func Boolean(b bool) Value { return Value{kind: KindBoolean, v: b} }
func Timestamp(ms int64) Value { return Value{kind: KindTimestamp, v: ms} }
func JSON(serialized string) Value { return Value{kind: KindJSON, v: serialized} }

// Other 未归类的值原样保存，nil 视为 Null
func Other(v any) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindOther, v: v}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Interface 返回底层值，Null 返回 nil
func (v Value) Interface() any {
	return v.v
}

// Decode 返回适合对外输出的值，JSON 文本会被解析为结构
func (v Value) Decode() any {
	if v.kind != KindJSON {
		return v.v
	}
	var decoded any
	if err := json.Unmarshal([]byte(v.v.(string)), &decoded); err != nil {
		return v.v
	}
	return decoded
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "null"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.v)
}
