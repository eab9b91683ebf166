package storage

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hatlonely/dbadmin/rdb/statement"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQL 基于 database/sql 的执行器
type SQL struct {
	db      *sql.DB
	dialect *statement.Dialect
}

func NewSQLWithOptions(options *Options) (*SQL, error) {
	dialect, err := statement.DialectFor(options.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(options)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open failed, driver: [%s]", options.Driver)
	}
	if options.MaxConns > 0 {
		db.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		db.SetMaxIdleConns(options.MaxIdle)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "db.Ping failed, driver: [%s]", options.Driver)
	}

	return &SQL{db: db, dialect: dialect}, nil
}

// NewSQLWithDB 包装已有的连接
func NewSQLWithDB(db *sql.DB, dialect *statement.Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

func (s *SQL) Exec(ctx context.Context, stmt *statement.Statement) (Result, error) {
	res, err := s.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return Result{}, errors.Wrapf(err, "exec failed, sql: [%s]", stmt.SQL)
	}
	return toResult(res), nil
}

func (s *SQL) Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query failed, sql: [%s]", stmt.SQL)
	}
	return scanRows(rows)
}

func (s *SQL) Dialect() *statement.Dialect {
	return s.dialect
}

func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func toResult(res sql.Result) Result {
	var result Result
	result.RowsAffected, _ = res.RowsAffected()
	// postgres 驱动不支持 LastInsertId，忽略错误
	result.LastInsertID, _ = res.LastInsertId()
	return result
}

// scanRows 将结果集逐行读成以列名为键的 map，并关闭 rows
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "rows.Columns failed")
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, "rows.Scan failed")
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows.Err")
	}
	return result, nil
}
