package query

import (
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/pkg/errors"
)

// MatchQuery 包含匹配查询，Value 中的通配符按字面量处理
type MatchQuery struct {
	Field schema.Identifier
	Value string
}

func (q *MatchQuery) Type() QueryType {
	return QueryTypeMatch
}

func (q *MatchQuery) ToSQL(r Renderer) (string, error) {
	if q.Field.IsZero() {
		return "", errors.New("match query requires a field")
	}
	return r.Contains(q.Field, r.Bind("%"+EscapeLike(q.Value)+"%")), nil
}
