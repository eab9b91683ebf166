package admin

import (
	"context"
	"testing"

	"github.com/hatlonely/dbadmin/log/logger"
	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewObservableWithOptions(t *testing.T) {
	Convey("NewObservableWithOptions", t, func() {
		env := newTestEnv(t)

		Convey("admin 为 nil 时返回错误", func() {
			obs, err := NewObservableWithOptions(nil, nil, nil)
			So(err, ShouldNotBeNil)
			So(obs, ShouldBeNil)
		})

		Convey("同一个 registry 重复创建复用指标", func() {
			registry := prometheus.NewRegistry()
			options := &ObservableOptions{EnableMetrics: true, Name: "dup", Registerer: registry}
			first, err := NewObservableWithOptions(env.engine, nil, options)
			So(err, ShouldBeNil)
			second, err := NewObservableWithOptions(env.engine, nil, options)
			So(err, ShouldBeNil)
			So(second.metrics.operationCounter, ShouldEqual, first.metrics.operationCounter)
		})
	})
}

func TestObservable(t *testing.T) {
	Convey("Observable 记录每次操作", t, func() {
		env := newTestEnv(t)
		ctx := context.Background()
		registry := prometheus.NewRegistry()

		var a Admin
		obs, err := NewObservableWithOptions(env.engine, logger.NewNop(), &ObservableOptions{
			EnableMetrics: true,
			EnableLogging: true,
			EnableTracing: true,
			Name:          "test",
			Registerer:    registry,
		})
		So(err, ShouldBeNil)
		a = obs

		row, err := a.Insert(ctx, "user", record.Record{"id": "u-1", "email": "a@x.com"})
		So(err, ShouldBeNil)
		So(row["id"], ShouldEqual, "u-1")

		_, err = a.Get(ctx, "user", "u-2")
		So(rdb.IsKind(err, rdb.KindRowNotFound), ShouldBeTrue)
		_, err = a.Get(ctx, "user", "u-1")
		So(err, ShouldBeNil)

		result, err := a.List(ctx, "user", QuerySpec{})
		So(err, ShouldBeNil)
		So(result.Total, ShouldEqual, 1)

		So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("Insert", "success")), ShouldEqual, 1)
		So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("Get", "success")), ShouldEqual, 1)
		So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("Get", string(rdb.KindRowNotFound))), ShouldEqual, 1)
		So(testutil.ToFloat64(obs.metrics.activeOperations.WithLabelValues("List")), ShouldEqual, 0)

		_, err = a.UpdateCell(ctx, "user", "u-1", "name", "alice")
		So(err, ShouldBeNil)
		_, err = a.UpdateRow(ctx, "user", "u-1", record.Record{"name": "bob"})
		So(err, ShouldBeNil)
		So(a.Delete(ctx, "user", "u-1"), ShouldBeNil)

		names, err := a.ListTableNames(ctx)
		So(err, ShouldBeNil)
		So(names, ShouldContain, "user")
		summaries, err := a.ListTables(ctx)
		So(err, ShouldBeNil)
		So(summaries, ShouldHaveLength, 3)
		_, ok, err := a.GetTableMetadata(ctx, "user")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		count, err := a.GetRowCount(ctx, "user")
		So(err, ShouldBeNil)
		So(count, ShouldEqual, 0)

		So(testutil.ToFloat64(obs.metrics.operationCounter.WithLabelValues("Delete", "success")), ShouldEqual, 1)
	})
}
