package admin

import (
	"context"
	"time"

	"github.com/hatlonely/dbadmin/log/logger"
	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableOptions struct {
	// EnableMetrics 是否启用指标收集
	EnableMetrics bool `cfg:"enableMetrics"`

	// EnableLogging 是否记录每次操作
	EnableLogging bool `cfg:"enableLogging"`

	// EnableTracing 是否启用分布式追踪
	EnableTracing bool `cfg:"enableTracing"`

	// Name 指标名前缀，同时作为日志和 span 的 component
	Name string `cfg:"name" def:"dbadmin"`

	// Registerer 指标注册位置，为空时使用 prometheus 默认 registry
	Registerer prometheus.Registerer `cfg:"-"`
}

// ObservableMetrics 操作指标
type ObservableMetrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
}

// NewObservableMetrics 创建并注册指标，同名指标已注册时复用已有的
func NewObservableMetrics(name string, registerer prometheus.Registerer) (*ObservableMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	operationCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name + "_operations_total",
			Help: "Total number of admin operations",
		},
		[]string{"operation", "status"},
	)
	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name + "_operation_duration_seconds",
			Help:    "Duration of admin operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"},
	)
	activeOperations := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name + "_active_operations",
			Help: "Number of active admin operations",
		},
		[]string{"operation"},
	)

	var err error
	metrics := &ObservableMetrics{}
	if metrics.operationCounter, err = register(registerer, operationCounter); err != nil {
		return nil, err
	}
	if metrics.operationDuration, err = register(registerer, operationDuration); err != nil {
		return nil, err
	}
	if metrics.activeOperations, err = register(registerer, activeOperations); err != nil {
		return nil, err
	}
	return metrics, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register collector failed")
	}
	return c, nil
}

// Observable 装饰器，为 Admin 的每个操作添加指标、日志和追踪
type Observable struct {
	admin Admin

	logger        logger.Logger
	metrics       *ObservableMetrics
	tracer        trace.Tracer
	name          string
	enableLogging bool
}

func NewObservableWithOptions(admin Admin, l logger.Logger, options *ObservableOptions) (*Observable, error) {
	if admin == nil {
		return nil, errors.New("admin is nil")
	}
	if options == nil {
		options = &ObservableOptions{EnableMetrics: true, EnableLogging: true, Name: "dbadmin"}
	}
	if options.Name == "" {
		options.Name = "dbadmin"
	}

	obs := &Observable{
		admin:         admin,
		name:          options.Name,
		enableLogging: options.EnableLogging && l != nil,
	}
	if obs.enableLogging {
		obs.logger = l.WithGroup("observable")
	}
	if options.EnableMetrics {
		metrics, err := NewObservableMetrics(options.Name, options.Registerer)
		if err != nil {
			return nil, errors.WithMessage(err, "NewObservableMetrics failed")
		}
		obs.metrics = metrics
	}
	if options.EnableTracing {
		obs.tracer = otel.Tracer("admin." + options.Name)
	}

	return obs, nil
}

// observeOperation 统一的操作观测逻辑
func (obs *Observable) observeOperation(ctx context.Context, operation string, table string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, "admin."+operation,
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("operation", operation),
				attribute.String("db.table", table),
			),
		)
		defer span.End()
	}

	if obs.metrics != nil {
		obs.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer obs.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	err := fn(ctx)
	duration := time.Since(start)

	// 预期错误按类别计数，其余统一记为 error
	status := "success"
	if err != nil {
		status = "error"
		if kind := rdb.KindOf(err); kind != "" {
			status = string(kind)
		}
	}

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	if obs.enableLogging {
		if err != nil {
			obs.logger.WarnContext(ctx, "admin operation failed",
				"component", obs.name,
				"operation", operation,
				"table", table,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		} else {
			obs.logger.InfoContext(ctx, "admin operation completed",
				"component", obs.name,
				"operation", operation,
				"table", table,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}

	return err
}

func (obs *Observable) ListTableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := obs.observeOperation(ctx, "ListTableNames", "", func(ctx context.Context) error {
		var err error
		names, err = obs.admin.ListTableNames(ctx)
		return err
	})
	return names, err
}

func (obs *Observable) ListTables(ctx context.Context) ([]TableSummary, error) {
	var summaries []TableSummary
	err := obs.observeOperation(ctx, "ListTables", "", func(ctx context.Context) error {
		var err error
		summaries, err = obs.admin.ListTables(ctx)
		return err
	})
	return summaries, err
}

func (obs *Observable) GetTableMetadata(ctx context.Context, table string) (*schema.Table, bool, error) {
	var t *schema.Table
	var ok bool
	err := obs.observeOperation(ctx, "GetTableMetadata", table, func(ctx context.Context) error {
		var err error
		t, ok, err = obs.admin.GetTableMetadata(ctx, table)
		return err
	})
	return t, ok, err
}

func (obs *Observable) GetRowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := obs.observeOperation(ctx, "GetRowCount", table, func(ctx context.Context) error {
		var err error
		count, err = obs.admin.GetRowCount(ctx, table)
		return err
	})
	return count, err
}

func (obs *Observable) List(ctx context.Context, table string, spec QuerySpec) (*ListResult, error) {
	var result *ListResult
	err := obs.observeOperation(ctx, "List", table, func(ctx context.Context) error {
		var err error
		result, err = obs.admin.List(ctx, table, spec)
		return err
	})
	return result, err
}

func (obs *Observable) Get(ctx context.Context, table string, id any) (record.Record, error) {
	var rec record.Record
	err := obs.observeOperation(ctx, "Get", table, func(ctx context.Context) error {
		var err error
		rec, err = obs.admin.Get(ctx, table, id)
		return err
	})
	return rec, err
}

func (obs *Observable) Insert(ctx context.Context, table string, data record.Record) (record.Record, error) {
	var rec record.Record
	err := obs.observeOperation(ctx, "Insert", table, func(ctx context.Context) error {
		var err error
		rec, err = obs.admin.Insert(ctx, table, data)
		return err
	})
	return rec, err
}

func (obs *Observable) UpdateRow(ctx context.Context, table string, id any, data record.Record) (record.Record, error) {
	var rec record.Record
	err := obs.observeOperation(ctx, "UpdateRow", table, func(ctx context.Context) error {
		var err error
		rec, err = obs.admin.UpdateRow(ctx, table, id, data)
		return err
	})
	return rec, err
}

func (obs *Observable) UpdateCell(ctx context.Context, table string, id any, column string, value any) (record.Record, error) {
	var rec record.Record
	err := obs.observeOperation(ctx, "UpdateCell", table, func(ctx context.Context) error {
		var err error
		rec, err = obs.admin.UpdateCell(ctx, table, id, column, value)
		return err
	})
	return rec, err
}

func (obs *Observable) Delete(ctx context.Context, table string, id any) error {
	return obs.observeOperation(ctx, "Delete", table, func(ctx context.Context) error {
		return obs.admin.Delete(ctx, table, id)
	})
}
