package admin

import (
	"context"
	"testing"
	"time"

	"github.com/hatlonely/dbadmin/rdb/catalog"
	"github.com/hatlonely/dbadmin/rdb/lifecycle"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/storage"
	. "github.com/smartystreets/goconvey/convey"
)

type testArticle struct {
	ID        string    `rdb:"id,primary"`
	Title     string    `rdb:"title,size=128,required"`
	Views     int       `rdb:"views,nullable"`
	Published bool      `rdb:"published,nullable"`
	Meta      any       `rdb:"meta,type=json,nullable"`
	CreatedAt time.Time `rdb:"created_at"`
}

func (testArticle) TableName() string {
	return "article"
}

func TestMigrate(t *testing.T) {
	Convey("测试由结构体声明建表", t, func() {
		ctx := context.Background()
		executor, err := storage.NewSQLWithOptions(&storage.Options{Driver: "sqlite3", Database: ":memory:", MaxConns: 1})
		So(err, ShouldBeNil)
		defer executor.Close()

		provider, err := schema.NewStructProvider(testArticle{}, testAccount{})
		So(err, ShouldBeNil)

		So(Migrate(ctx, provider, executor), ShouldBeNil)
		// 重复执行不报错
		So(Migrate(ctx, provider, executor), ShouldBeNil)

		introspector, err := storage.NewIntrospector(executor, "")
		So(err, ShouldBeNil)
		names, err := introspector.ListTables(ctx)
		So(err, ShouldBeNil)
		So(names, ShouldResemble, []string{"account", "article"})

		article, err := introspector.DescribeTable(ctx, "article")
		So(err, ShouldBeNil)
		So(article.ColumnNames(), ShouldResemble, []string{"id", "title", "views", "published", "meta", "created_at"})
		title, _ := article.Column("title")
		So(title.Nullable, ShouldBeFalse)

		Convey("结构体 schema 驱动的读写", func() {
			policy, err := lifecycle.NewPolicyWithOptions(nil)
			So(err, ShouldBeNil)
			engine := NewEngine(catalog.NewCatalog(provider, executor), executor, policy, nil)

			row, err := engine.Insert(ctx, "article", record.Record{
				"title":     "hello",
				"published": "true",
				"meta":      `{"lang":"en"}`,
			})
			So(err, ShouldBeNil)
			So(row["title"], ShouldEqual, "hello")
			So(row["published"], ShouldEqual, true)
			So(row["meta"], ShouldResemble, map[string]any{"lang": "en"})
			So(row["created_at"], ShouldNotBeNil)

			row, err = engine.Insert(ctx, "account", record.Record{"name": "alice"})
			So(err, ShouldBeNil)
			So(row["id"], ShouldEqual, int64(1))
		})
	})
}
