package storage

import (
	"context"
	"strings"

	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/pkg/errors"
)

// PostgresIntrospector 通过 information_schema 发现指定 schema 下的表
type PostgresIntrospector struct {
	executor Executor
	schema   string
}

func NewPostgresIntrospector(executor Executor, pgSchema string) *PostgresIntrospector {
	if pgSchema == "" {
		pgSchema = "public"
	}
	return &PostgresIntrospector{executor: executor, schema: pgSchema}
}

func (i *PostgresIntrospector) ListTables(ctx context.Context) ([]string, error) {
	rows, err := i.executor.Query(ctx, &statement.Statement{
		SQL: `SELECT table_name AS name FROM information_schema.tables
			WHERE table_schema = $1 AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		Args: []any{i.schema},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "list postgres tables failed")
	}
	return stringColumn(rows, "name"), nil
}

func (i *PostgresIntrospector) DescribeTable(ctx context.Context, name string) (*schema.Table, error) {
	rows, err := i.executor.Query(ctx, &statement.Statement{
		SQL: `SELECT column_name AS name, data_type AS type, udt_name AS udt, is_nullable AS nullable,
				column_default AS dflt, character_maximum_length AS max_length
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`,
		Args: []any{i.schema, name},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "describe postgres table %s failed", name)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	constraints, err := i.executor.Query(ctx, &statement.Statement{
		SQL: `SELECT kcu.column_name AS name, tc.constraint_type AS kind, tc.constraint_name AS constraint_name
			FROM information_schema.table_constraints AS tc
			JOIN information_schema.key_column_usage AS kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
				AND tc.table_name = kcu.table_name
			WHERE tc.table_schema = $1 AND tc.table_name = $2
				AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
			ORDER BY kcu.ordinal_position`,
		Args: []any{i.schema, name},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "describe postgres constraints of %s failed", name)
	}

	primary := map[string]bool{}
	uniqueColumns := map[string][]string{}
	for _, row := range constraints {
		column := asString(row["name"])
		switch asString(row["kind"]) {
		case "PRIMARY KEY":
			primary[column] = true
		case "UNIQUE":
			constraint := asString(row["constraint_name"])
			uniqueColumns[constraint] = append(uniqueColumns[constraint], column)
		}
	}
	unique := map[string]bool{}
	for _, columns := range uniqueColumns {
		if len(columns) == 1 {
			unique[columns[0]] = true
		}
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		nativeType := asString(row["type"])
		// 数组和自定义类型的 data_type 不具体，用 udt_name 展示
		if nativeType == "USER-DEFINED" {
			nativeType = asString(row["udt"])
		}
		col := schema.Column{
			Name:       asString(row["name"]),
			NativeType: nativeType,
			Type:       schema.MapType(nativeType),
			Nullable:   asString(row["nullable"]) == "YES",
			HasDefault: row["dflt"] != nil,
			MaxLength:  int(asInt(row["max_length"])),
		}
		if strings.EqualFold(nativeType, "ARRAY") {
			col.NativeType = asString(row["udt"])
			col.Type = schema.TypeOther
		}
		col.PrimaryKey = primary[col.Name]
		col.Unique = unique[col.Name]
		if col.Type != schema.TypeText {
			col.MaxLength = 0
		}
		columns = append(columns, col)
	}

	return schema.NewTable(name, columns)
}
