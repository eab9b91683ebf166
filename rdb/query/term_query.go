package query

import (
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/pkg/errors"
)

// TermQuery 精确匹配查询
type TermQuery struct {
	Field schema.Identifier
	Value any
}

func (q *TermQuery) Type() QueryType {
	return QueryTypeTerm
}

func (q *TermQuery) ToSQL(r Renderer) (string, error) {
	if q.Field.IsZero() {
		return "", errors.New("term query requires a field")
	}
	if q.Value == nil {
		return r.Ident(q.Field) + " IS NULL", nil
	}
	return r.Ident(q.Field) + " = " + r.Bind(q.Value), nil
}
