package storage

import (
	"context"
	"time"

	"github.com/hatlonely/dbadmin/log"
	"github.com/hatlonely/dbadmin/log/logger"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Gorm 复用 gorm 连接池的执行器，只使用 Raw / ConnPool，不使用模型映射
type Gorm struct {
	db      *gorm.DB
	dialect *statement.Dialect
}

func NewGormWithOptions(options *Options) (*Gorm, error) {
	dialect, err := statement.DialectFor(options.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(options)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch options.Driver {
	case "sqlite3":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, errors.Errorf("gorm engine does not support driver: %s", options.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(log.Default()),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "gorm.Open failed, driver: [%s]", options.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "gorm.DB failed")
	}
	if options.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(options.MaxConns)
	}
	if options.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(options.MaxIdle)
	}

	return &Gorm{db: db, dialect: dialect}, nil
}

func (g *Gorm) Exec(ctx context.Context, stmt *statement.Statement) (Result, error) {
	// 直接使用连接池执行，才能拿到 LastInsertId
	res, err := g.db.WithContext(ctx).Statement.ConnPool.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return Result{}, errors.Wrapf(err, "exec failed, sql: [%s]", stmt.SQL)
	}
	return toResult(res), nil
}

func (g *Gorm) Query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
	rows, err := g.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "query failed, sql: [%s]", stmt.SQL)
	}
	return scanRows(rows)
}

func (g *Gorm) Dialect() *statement.Dialect {
	return g.dialect
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return errors.Wrap(err, "gorm.DB failed")
	}
	return sqlDB.Close()
}

// gormLogger 把 gorm 的日志转到 logger.Logger
type gormLogger struct {
	logger logger.Logger
	level  gormlogger.LogLevel
}

func newGormLogger(l logger.Logger) *gormLogger {
	return &gormLogger{logger: l.WithGroup("gorm"), level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{logger: l.logger, level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, msg, "args", args)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, msg, "args", args)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, msg, "args", args)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	sql, rows := fc()
	if err != nil && l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, "gorm query failed", "sql", sql, "rows", rows, "elapsed", time.Since(begin), "error", err)
		return
	}
	l.logger.DebugContext(ctx, "gorm query", "sql", sql, "rows", rows, "elapsed", time.Since(begin))
}
