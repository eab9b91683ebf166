package storage

import (
	"context"
	"strings"

	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/pkg/errors"
)

// SQLiteIntrospector 通过 sqlite_master 和 pragma 表函数发现 schema
type SQLiteIntrospector struct {
	executor Executor
}

func NewSQLiteIntrospector(executor Executor) *SQLiteIntrospector {
	return &SQLiteIntrospector{executor: executor}
}

func (i *SQLiteIntrospector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.executor.Query(ctx, &statement.Statement{
		SQL: `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "list sqlite tables failed")
	}
	return stringColumn(rows, "name"), nil
}

func (i *SQLiteIntrospector) DescribeTable(ctx context.Context, name string) (*schema.Table, error) {
	rows, err := i.executor.Query(ctx, &statement.Statement{
		SQL:  `SELECT name, type, "notnull" AS not_null, dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`,
		Args: []any{name},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "describe sqlite table %s failed", name)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	unique, err := i.uniqueColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	pkCount := 0
	for _, row := range rows {
		if asInt(row["pk"]) > 0 {
			pkCount++
		}
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		nativeType := asString(row["type"])
		pk := asInt(row["pk"]) > 0
		col := schema.Column{
			Name:       asString(row["name"]),
			NativeType: nativeType,
			Nullable:   asInt(row["not_null"]) == 0 && !pk,
			PrimaryKey: pk,
			MaxLength:  schema.MaxLength(nativeType),
			HasDefault: row["dflt_value"] != nil,
		}
		// INTEGER PRIMARY KEY 是 rowid 的别名，由数据库分配
		if pk && pkCount == 1 && strings.EqualFold(nativeType, "integer") {
			col.HasDefault = true
		}
		col.Unique = unique[col.Name]
		columns = append(columns, col)
	}

	return schema.NewTable(name, columns)
}

// uniqueColumns 返回由单列唯一索引约束的列
func (i *SQLiteIntrospector) uniqueColumns(ctx context.Context, table string) (map[string]bool, error) {
	indexes, err := i.executor.Query(ctx, &statement.Statement{
		SQL:  `SELECT name, "unique" AS is_unique, origin FROM pragma_index_list(?)`,
		Args: []any{table},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "list sqlite indexes of %s failed", table)
	}

	unique := map[string]bool{}
	for _, index := range indexes {
		if asInt(index["is_unique"]) == 0 || asString(index["origin"]) == "pk" {
			continue
		}
		columns, err := i.executor.Query(ctx, &statement.Statement{
			SQL:  `SELECT name FROM pragma_index_info(?)`,
			Args: []any{asString(index["name"])},
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "describe sqlite index %v failed", index["name"])
		}
		if len(columns) == 1 {
			unique[asString(columns[0]["name"])] = true
		}
	}
	return unique, nil
}
