package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/pkg/errors"
)

// NewIntrospector 根据执行器的方言选择 schema 发现实现
func NewIntrospector(executor Executor, pgSchema string) (schema.Provider, error) {
	switch executor.Dialect() {
	case statement.SQLite:
		return NewSQLiteIntrospector(executor), nil
	case statement.MySQL:
		return NewMySQLIntrospector(executor), nil
	case statement.Postgres:
		return NewPostgresIntrospector(executor, pgSchema), nil
	}
	return nil, errors.Errorf("no introspector for dialect %s", executor.Dialect().Name())
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

func asInt(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case uint64:
		return int64(val)
	case float64:
		return int64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string, []byte:
		i, _ := strconv.ParseInt(strings.TrimSpace(asString(val)), 10, 64)
		return i
	}
	return 0
}

func stringColumn(rows []map[string]any, key string) []string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, asString(row[key]))
	}
	return values
}
