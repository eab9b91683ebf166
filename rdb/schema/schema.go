// Package schema 描述运行时发现的表结构
//
// Table / Column 是对真实 schema 的只读投影，由 Provider 派生，进程生命周期内不可变。
// Identifier 是语句中唯一允许出现在标识符位置的类型，只能从元数据上取得。
package schema

import (
	"context"
	"fmt"
)

// Identifier 经过 schema 校验的表名或列名
// 零值不可用，只能通过 NewTable 创建的 Table / Column 的 Ident 获得
type Identifier struct {
	name string
}

func (i Identifier) Name() string {
	return i.name
}

func (i Identifier) IsZero() bool {
	return i.name == ""
}

func (i Identifier) String() string {
	return i.name
}

// Column 列元数据
type Column struct {
	Name       string        `json:"name"`
	Type       CanonicalType `json:"canonicalType"`
	NativeType string        `json:"nativeType,omitempty"`
	Nullable   bool          `json:"isNullable"`
	PrimaryKey bool          `json:"isPrimaryKey"`
	Unique     bool          `json:"isUnique"`
	MaxLength  int           `json:"maxLength,omitempty"` // 0 表示不限制
	HasDefault bool          `json:"hasDefault,omitempty"`
	Position   int           `json:"position"`

	ident Identifier
}

// Ident 手工构造的列返回零值
func (c *Column) Ident() Identifier {
	return c.ident
}

// Table 表元数据
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`

	index map[string]int
	ident Identifier
}

// NewTable 创建表元数据，列名必须唯一，Position 按声明顺序补齐
func NewTable(name string, columns []Column) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	t := &Table{
		Name:    name,
		Columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
		ident:   Identifier{name: name},
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("table %s: column %d has empty name", name, i)
		}
		if _, ok := t.index[col.Name]; ok {
			return nil, fmt.Errorf("table %s: duplicate column %s", name, col.Name)
		}
		if col.Type == "" {
			col.Type = MapType(col.NativeType)
		}
		if col.PrimaryKey {
			col.Nullable = false
		}
		col.Position = i + 1
		col.ident = Identifier{name: col.Name}
		t.Columns[i] = col
		t.index[col.Name] = i
	}
	return t, nil
}

func (t *Table) Ident() Identifier {
	return t.ident
}

// Column 按名称查找列
func (t *Table) Column(name string) (*Column, bool) {
	if t.index == nil {
		for i := range t.Columns {
			if t.Columns[i].Name == name {
				return &t.Columns[i], true
			}
		}
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.Columns[i], true
}

// PrimaryKey 返回用于行定位的主键列，复合主键时取第一列
func (t *Table) PrimaryKey() (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnsOfType 按声明顺序返回指定规范类型的列
func (t *Table) ColumnsOfType(typ CanonicalType) []*Column {
	var columns []*Column
	for i := range t.Columns {
		if t.Columns[i].Type == typ {
			columns = append(columns, &t.Columns[i])
		}
	}
	return columns
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
	}
	return names
}

// Provider schema 发现能力，具体的存储绑定各自实现
type Provider interface {
	// ListTables 返回所有声明的表名，顺序不做保证
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable 返回表结构，表不存在时返回 (nil, nil)
	DescribeTable(ctx context.Context, name string) (*Table, error)
}
