// Package statement 根据表元数据构建参数化 SQL
//
// 标识符只能以 schema.Identifier 的形式进入语句，并且只在 Builder.quote 中写入 SQL 文本；
// 所有值都作为绑定参数传递
package statement

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hatlonely/dbadmin/rdb/record"
)

// Dialect 数据库方言
type Dialect struct {
	name       string
	quoteChar  byte
	numbered   bool
	returning  bool
	ilike      bool
	escape     bool
	nativeTime bool
}

var (
	// SQLite 时间戳以 time.Time 绑定，驱动写入文本格式，读取时按列声明类型解析回 time.Time；
	// 整数毫秒值在 2001-09 之前会被驱动当作秒读取
	SQLite = &Dialect{name: "sqlite3", quoteChar: '"', returning: true, escape: true, nativeTime: true}
	// Postgres 时间戳列使用 time.Time 绑定，LIKE 使用 ILIKE，列先转换为文本以支持 uuid 等类型
	Postgres = &Dialect{name: "postgres", quoteChar: '"', numbered: true, returning: true, ilike: true, nativeTime: true}
	// MySQL 不支持 RETURNING，写入后需要按主键回查
	MySQL = &Dialect{name: "mysql", quoteChar: '`', nativeTime: true}
)

// DialectFor 根据驱动名返回方言
func DialectFor(driver string) (*Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	}
	return nil, fmt.Errorf("unsupported driver: %s", driver)
}

func (d *Dialect) Name() string {
	return d.name
}

// Returning 是否支持 INSERT/UPDATE ... RETURNING
func (d *Dialect) Returning() bool {
	return d.returning
}

// Placeholder 第 n 个参数的占位符，n 从 1 开始
func (d *Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Contains 大小写不敏感的包含匹配，column 为已转义的标识符，pattern 中的通配符已用反斜杠转义
func (d *Dialect) Contains(column, pattern string) string {
	switch {
	case d.ilike:
		return "CAST(" + column + " AS TEXT) ILIKE " + pattern
	case d.escape:
		return column + " LIKE " + pattern + ` ESCAPE '\'`
	default:
		return column + " LIKE " + pattern
	}
}

// Arg 将类型化的值转换为驱动可以绑定的参数
func (d *Dialect) Arg(v record.Value) any {
	switch v.Kind() {
	case record.KindNull:
		return nil
	case record.KindTimestamp:
		ms := v.Interface().(int64)
		if d.nativeTime {
			return time.UnixMilli(ms).UTC()
		}
		return ms
	default:
		return v.Interface()
	}
}
