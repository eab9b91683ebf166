package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/uid/intgen"
	"github.com/hatlonely/dbadmin/uid/strgen"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newPolicy(options *Options) *Policy {
	if options == nil {
		options = &Options{}
	}
	options.Now = func() time.Time { return fixedNow }
	p, err := NewPolicyWithOptions(options)
	if err != nil {
		panic(err)
	}
	return p
}

func mustTable(name string, columns ...schema.Column) *schema.Table {
	table, err := schema.NewTable(name, columns)
	if err != nil {
		panic(err)
	}
	return table
}

func TestApplyInsert(t *testing.T) {
	Convey("测试 ApplyInsert", t, func() {
		ctx := context.Background()
		users := mustTable("user",
			schema.Column{Name: "id", Type: schema.TypeText, PrimaryKey: true},
			schema.Column{Name: "email", Type: schema.TypeText},
			schema.Column{Name: "created_at", Type: schema.TypeTimestamp},
			schema.Column{Name: "updatedAt", Type: schema.TypeText},
		)

		Convey("生成 UUID 主键和审计时间", func() {
			p := newPolicy(nil)
			in := record.Record{"email": "a@x.com"}
			out, err := p.ApplyInsert(ctx, users, in)
			So(err, ShouldBeNil)
			_, err = uuid.Parse(out["id"].(string))
			So(err, ShouldBeNil)
			So(out["created_at"], ShouldEqual, fixedNow.UnixMilli())
			So(out["updatedAt"], ShouldEqual, "2024-03-01T12:00:00Z")
			So(in, ShouldHaveLength, 1)
		})

		Convey("调用方提供的值原样保留", func() {
			p := newPolicy(nil)
			out, err := p.ApplyInsert(ctx, users, record.Record{"id": "u-1", "created_at": int64(5)})
			So(err, ShouldBeNil)
			So(out["id"], ShouldEqual, "u-1")
			So(out["created_at"], ShouldEqual, int64(5))
		})

		Convey("空字符串视为缺失", func() {
			p := newPolicy(nil)
			out, err := p.ApplyInsert(ctx, users, record.Record{"id": ""})
			So(err, ShouldBeNil)
			So(out["id"], ShouldNotEqual, "")
		})

		Convey("整数主键默认交给数据库", func() {
			items := mustTable("item", schema.Column{Name: "id", Type: schema.TypeInteger, PrimaryKey: true})
			out, err := newPolicy(nil).ApplyInsert(ctx, items, record.Record{})
			So(err, ShouldBeNil)
			So(out, ShouldNotContainKey, "id")
		})

		Convey("配置 snowflake 后生成整数主键", func() {
			items := mustTable("item", schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true})
			machineID := int64(3)
			p := newPolicy(&Options{IntGenerator: "snowflake", Snowflake: intgen.SnowflakeOptions{MachineID: &machineID}})
			out, err := p.ApplyInsert(ctx, items, record.Record{})
			So(err, ShouldBeNil)
			So(out["id"].(int64), ShouldBeGreaterThan, 0)
		})

		Convey("配置 redis 后生成整数主键", func() {
			mr := miniredis.RunT(t)
			items := mustTable("item", schema.Column{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true})
			p := newPolicy(&Options{IntGenerator: "redis", Redis: intgen.RedisOptions{Addr: mr.Addr()}})
			out, err := p.ApplyInsert(ctx, items, record.Record{})
			So(err, ShouldBeNil)
			So(out["id"].(int64)>>12, ShouldBeGreaterThan, 0)
		})

		Convey("自定义主键列名", func() {
			tags := mustTable("tag", schema.Column{Name: "tag_id", Type: schema.TypeOther, PrimaryKey: true})
			out, err := newPolicy(&Options{IDColumn: "tag_id"}).ApplyInsert(ctx, tags, record.Record{})
			So(err, ShouldBeNil)
			So(out["tag_id"], ShouldNotBeEmpty)
		})
	})
}

func TestApplyUpdate(t *testing.T) {
	Convey("测试 ApplyUpdate", t, func() {
		users := mustTable("user",
			schema.Column{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
			schema.Column{Name: "email", Type: schema.TypeText},
			schema.Column{Name: "updated_at", Type: schema.TypeTimestamp},
		)
		p := newPolicy(nil)

		out := p.ApplyUpdate(users, record.Record{"id": 9, "email": "b@x.com", "updated_at": int64(1)})
		So(out, ShouldResemble, record.Record{"email": "b@x.com", "updated_at": fixedNow.UnixMilli()})

		So(p.StripPrimaryKey(users, record.Record{"id": 1}), ShouldBeEmpty)
	})
}

func TestNewPolicyWithOptions(t *testing.T) {
	Convey("测试 NewPolicyWithOptions", t, func() {
		_, err := NewPolicyWithOptions(&Options{UUID: strgen.UUIDOptions{Version: "v9"}})
		So(err, ShouldNotBeNil)
		_, err = NewPolicyWithOptions(&Options{IntGenerator: "redis"})
		So(err, ShouldNotBeNil)
		p, err := NewPolicyWithOptions(nil)
		So(err, ShouldBeNil)
		So(p.idColumn, ShouldEqual, "id")
	})
}
