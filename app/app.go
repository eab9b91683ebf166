// Package app 按配置组装存储、schema、引擎和 HTTP 服务
package app

import (
	"context"

	"github.com/hatlonely/dbadmin/log"
	"github.com/hatlonely/dbadmin/log/logger"
	"github.com/hatlonely/dbadmin/rdb/admin"
	"github.com/hatlonely/dbadmin/rdb/catalog"
	"github.com/hatlonely/dbadmin/rdb/lifecycle"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/storage"
	"github.com/hatlonely/dbadmin/server"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	ProviderIntrospect = "introspect"
	ProviderStruct     = "struct"
)

type SchemaOptions struct {
	// introspect 从数据库读取表结构，struct 使用注册的 Go 结构体
	Provider string `cfg:"provider" def:"introspect" validate:"oneof=introspect struct"`
	// postgres 下读取的 schema
	PgSchema string `cfg:"pgSchema" def:"public"`
	// 启动时为结构体声明的表执行 CREATE TABLE IF NOT EXISTS
	Migrate bool `cfg:"migrate"`
}

type Options struct {
	Storage    storage.Options         `cfg:"storage"`
	Schema     SchemaOptions           `cfg:"schema"`
	Lifecycle  lifecycle.Options       `cfg:"lifecycle"`
	Logger     logger.SLogOptions      `cfg:"logger"`
	Server     server.Options          `cfg:"server"`
	Observable admin.ObservableOptions `cfg:"observable"`
}

type App struct {
	Admin    admin.Admin
	Catalog  *catalog.Catalog
	Executor storage.Executor
	Logger   logger.Logger
	Registry *prometheus.Registry

	options *Options
}

// New 创建应用，models 为 struct 模式下声明表结构的结构体
func New(ctx context.Context, options *Options, models ...any) (*App, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}

	l, err := log.NewLoggerWithOptions(&options.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "log.NewLoggerWithOptions failed")
	}
	log.SetDefault(l)

	executor, err := storage.NewExecutorWithOptions(&options.Storage)
	if err != nil {
		return nil, errors.WithMessage(err, "storage.NewExecutorWithOptions failed")
	}

	provider, err := newProvider(ctx, options, executor, models)
	if err != nil {
		_ = executor.Close()
		return nil, err
	}

	policy, err := lifecycle.NewPolicyWithOptions(&options.Lifecycle)
	if err != nil {
		_ = executor.Close()
		return nil, errors.WithMessage(err, "lifecycle.NewPolicyWithOptions failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cat := catalog.NewCatalog(provider, executor)
	var a admin.Admin = admin.NewEngine(cat, executor, policy, l)
	if obs := options.Observable; obs.EnableMetrics || obs.EnableLogging || obs.EnableTracing {
		if obs.Registerer == nil {
			obs.Registerer = registry
		}
		a, err = admin.NewObservableWithOptions(a, l, &obs)
		if err != nil {
			_ = executor.Close()
			return nil, errors.WithMessage(err, "admin.NewObservableWithOptions failed")
		}
	}

	l.Info("app initialized",
		"engine", options.Storage.Engine,
		"driver", options.Storage.Driver,
		"schema", options.Schema.Provider,
	)

	return &App{
		Admin:    a,
		Catalog:  cat,
		Executor: executor,
		Logger:   l,
		Registry: registry,
		options:  options,
	}, nil
}

func newProvider(ctx context.Context, options *Options, executor storage.Executor, models []any) (schema.Provider, error) {
	switch options.Schema.Provider {
	case ProviderStruct:
		provider, err := schema.NewStructProvider(models...)
		if err != nil {
			return nil, errors.WithMessage(err, "schema.NewStructProvider failed")
		}
		if options.Schema.Migrate {
			if err := admin.Migrate(ctx, provider, executor); err != nil {
				return nil, errors.WithMessage(err, "admin.Migrate failed")
			}
		}
		return provider, nil
	case ProviderIntrospect, "":
		provider, err := storage.NewIntrospector(executor, options.Schema.PgSchema)
		if err != nil {
			return nil, errors.WithMessage(err, "storage.NewIntrospector failed")
		}
		return provider, nil
	}
	return nil, errors.Errorf("unsupported schema provider: %s", options.Schema.Provider)
}

// Server 以配置中的 admin token 创建 HTTP 服务
func (a *App) Server() *server.Server {
	authorizer := server.NewTokenAuthorizer(a.options.Server.AdminTokens...)
	return server.NewServer(a.Admin, authorizer, a.Logger, a.Registry)
}

// Serve 启动 HTTP 服务直到 ctx 取消
func (a *App) Serve(ctx context.Context) error {
	if len(a.options.Server.AdminTokens) == 0 {
		a.Logger.Warn("no admin tokens configured, all api requests will be rejected")
	}
	return a.Server().Run(ctx, &a.options.Server)
}

func (a *App) Close() error {
	return a.Executor.Close()
}
