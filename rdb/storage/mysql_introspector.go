package storage

import (
	"context"
	"strings"

	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/pkg/errors"
)

// MySQLIntrospector 通过 information_schema 发现当前库的 schema
type MySQLIntrospector struct {
	executor Executor
}

func NewMySQLIntrospector(executor Executor) *MySQLIntrospector {
	return &MySQLIntrospector{executor: executor}
}

func (i *MySQLIntrospector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.executor.Query(ctx, &statement.Statement{
		SQL: `SELECT table_name AS name FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "list mysql tables failed")
	}
	return stringColumn(rows, "name"), nil
}

func (i *MySQLIntrospector) DescribeTable(ctx context.Context, name string) (*schema.Table, error) {
	rows, err := i.executor.Query(ctx, &statement.Statement{
		SQL: `SELECT column_name AS name, column_type AS type, is_nullable AS nullable, column_key AS col_key,
				column_default AS dflt, extra AS extra, character_maximum_length AS max_length
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`,
		Args: []any{name},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "describe mysql table %s failed", name)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		nativeType := asString(row["type"])
		key := asString(row["col_key"])
		col := schema.Column{
			Name:       asString(row["name"]),
			NativeType: nativeType,
			Nullable:   asString(row["nullable"]) == "YES",
			PrimaryKey: key == "PRI",
			Unique:     key == "UNI",
			HasDefault: row["dflt"] != nil || strings.Contains(strings.ToLower(asString(row["extra"])), "auto_increment"),
			MaxLength:  int(asInt(row["max_length"])),
		}
		if schema.MapType(nativeType) != schema.TypeText {
			col.MaxLength = 0
		}
		columns = append(columns, col)
	}

	return schema.NewTable(name, columns)
}
