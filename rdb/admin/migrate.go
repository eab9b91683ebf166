package admin

import (
	"context"

	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/hatlonely/dbadmin/rdb/storage"
	"github.com/pkg/errors"
)

// Migrate 为 provider 声明的每张表执行 CREATE TABLE IF NOT EXISTS，已存在的表不做修改
func Migrate(ctx context.Context, provider schema.Provider, executor storage.Executor) error {
	names, err := provider.ListTables(ctx)
	if err != nil {
		return errors.WithMessage(err, "list tables failed")
	}

	builder := statement.NewBuilder(executor.Dialect())
	for _, name := range names {
		table, err := provider.DescribeTable(ctx, name)
		if err != nil {
			return errors.WithMessagef(err, "describe table %s failed", name)
		}
		if table == nil {
			continue
		}
		stmt, err := builder.CreateTable(table)
		if err != nil {
			return errors.WithMessagef(err, "build create table %s failed", name)
		}
		if _, err := executor.Exec(ctx, stmt); err != nil {
			return errors.WithMessagef(err, "create table %s failed", name)
		}
	}
	return nil
}
