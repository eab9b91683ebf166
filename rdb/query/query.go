package query

import (
	"strings"

	"github.com/hatlonely/dbadmin/rdb/schema"
)

// QueryType 查询类型
type QueryType string

const (
	QueryTypeBool  QueryType = "bool"
	QueryTypeTerm  QueryType = "term"
	QueryTypeMatch QueryType = "match"
)

// Renderer 把查询节点渲染为 SQL 片段，由语句构建器实现
type Renderer interface {
	// Ident 写入标识符，节点不能自己拼接列名
	Ident(id schema.Identifier) string
	// Bind 绑定参数，返回对应方言的占位符
	Bind(value any) string
	// Contains 返回大小写不敏感的 LIKE 片段，pattern 为已绑定的占位符
	Contains(field schema.Identifier, pattern string) string
}

// Query 查询节点接口
// ToSQL 返回空字符串表示不产生任何过滤条件
type Query interface {
	Type() QueryType
	ToSQL(r Renderer) (string, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike 转义 LIKE 通配符，转义字符为反斜杠
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
