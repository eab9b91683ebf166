package query

import (
	"strings"
)

// BoolQuery 布尔查询
type BoolQuery struct {
	Must    []Query
	Should  []Query
	MustNot []Query
}

func (q *BoolQuery) Type() QueryType {
	return QueryTypeBool
}

func (q *BoolQuery) ToSQL(r Renderer) (string, error) {
	var conditions []string

	must, err := renderAll(r, q.Must)
	if err != nil {
		return "", err
	}
	if len(must) > 0 {
		conditions = append(conditions, "("+strings.Join(must, " AND ")+")")
	}

	should, err := renderAll(r, q.Should)
	if err != nil {
		return "", err
	}
	if len(should) > 0 {
		conditions = append(conditions, "("+strings.Join(should, " OR ")+")")
	}

	mustNot, err := renderAll(r, q.MustNot)
	if err != nil {
		return "", err
	}
	for _, condition := range mustNot {
		conditions = append(conditions, "NOT ("+condition+")")
	}

	return strings.Join(conditions, " AND "), nil
}

// renderAll 依次渲染子查询，跳过不产生条件的节点
func renderAll(r Renderer, queries []Query) ([]string, error) {
	conditions := make([]string, 0, len(queries))
	for _, query := range queries {
		if query == nil {
			continue
		}
		sql, err := query.ToSQL(r)
		if err != nil {
			return nil, err
		}
		if sql != "" {
			conditions = append(conditions, sql)
		}
	}
	return conditions, nil
}

// Or 构造 Should 查询，没有子查询时返回 nil
func Or(queries ...Query) Query {
	if len(queries) == 0 {
		return nil
	}
	return &BoolQuery{Should: queries}
}

// And 构造 Must 查询，忽略 nil，没有子查询时返回 nil
func And(queries ...Query) Query {
	var must []Query
	for _, q := range queries {
		if q != nil {
			must = append(must, q)
		}
	}
	if len(must) == 0 {
		return nil
	}
	if len(must) == 1 {
		return must[0]
	}
	return &BoolQuery{Must: must}
}
