// Package storage 参数化语句的执行与 schema 发现
//
// 引擎只通过 Executor 访问数据库，不接触驱动的内部细节
package storage

import (
	"context"
	"fmt"

	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/pkg/errors"
)

// Result 写语句的执行结果
type Result struct {
	RowsAffected int64
	// LastInsertID 仅在驱动支持时有效，例如 mysql 的自增主键
	LastInsertID int64
}

// Executor 参数化语句执行接口
type Executor interface {
	Exec(ctx context.Context, stmt *statement.Statement) (Result, error)
	// Query 返回的每一行以列名为键，值为驱动返回的原始值
	Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error)
	Dialect() *statement.Dialect
	Close() error
}

type Options struct {
	// 执行引擎：sql 直接使用 database/sql，gorm 通过 gorm 的连接池执行
	Engine string `cfg:"engine" def:"sql" validate:"oneof=sql gorm"`
	Driver string `cfg:"driver" def:"sqlite3" validate:"oneof=sqlite3 mysql postgres"`
	// DSN 不为空时忽略下面的连接参数
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     int    `cfg:"port"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`
	Charset  string `cfg:"charset" def:"utf8mb4"`
	SSLMode  string `cfg:"sslMode" def:"disable"`
	MaxConns int    `cfg:"maxConns" def:"10"`
	MaxIdle  int    `cfg:"maxIdle" def:"5"`
}

// NewExecutorWithOptions 根据 Engine 创建执行器
func NewExecutorWithOptions(options *Options) (Executor, error) {
	if options == nil {
		return nil, errors.New("storage options cannot be nil")
	}
	switch options.Engine {
	case "sql", "":
		executor, err := NewSQLWithOptions(options)
		if err != nil {
			return nil, err
		}
		return executor, nil
	case "gorm":
		executor, err := NewGormWithOptions(options)
		if err != nil {
			return nil, err
		}
		return executor, nil
	}
	return nil, errors.Errorf("unsupported storage engine: %s", options.Engine)
}

// BuildDSN 由连接参数拼接各驱动的 DSN
func BuildDSN(options *Options) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}
	switch options.Driver {
	case "mysql":
		port := options.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
			options.Username, options.Password, options.Host, port, options.Database, options.Charset), nil
	case "postgres":
		port := options.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			options.Host, port, options.Username, options.Password, options.Database, options.SSLMode), nil
	case "sqlite3":
		if options.Database == "" {
			return "", errors.New("sqlite3 requires database")
		}
		return options.Database, nil
	}
	return "", errors.Errorf("unsupported driver: %s", options.Driver)
}
