package catalog

import (
	"context"
	"testing"

	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/hatlonely/dbadmin/rdb/storage"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

// countingProvider 记录调用次数的 schema 来源
type countingProvider struct {
	tables    map[string]*schema.Table
	listCalls int
	descCalls int
	err       error
}

func (p *countingProvider) ListTables(ctx context.Context) ([]string, error) {
	p.listCalls++
	if p.err != nil {
		return nil, p.err
	}
	names := make([]string, 0, len(p.tables))
	for name := range p.tables {
		names = append(names, name)
	}
	return names, nil
}

func (p *countingProvider) DescribeTable(ctx context.Context, name string) (*schema.Table, error) {
	p.descCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.tables[name], nil
}

func newSQLite(t *testing.T) *storage.SQL {
	executor, err := storage.NewSQLWithOptions(&storage.Options{Driver: "sqlite3", Database: ":memory:", MaxConns: 1})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = executor.Close() })
	return executor
}

func TestCatalog(t *testing.T) {
	Convey("测试表结构目录", t, func() {
		ctx := context.Background()
		executor := newSQLite(t)
		_, err := executor.Exec(ctx, &statement.Statement{SQL: `CREATE TABLE post (id INTEGER PRIMARY KEY, title TEXT)`})
		So(err, ShouldBeNil)
		_, err = executor.Exec(ctx, &statement.Statement{SQL: `CREATE TABLE author (id INTEGER PRIMARY KEY, name TEXT)`})
		So(err, ShouldBeNil)
		for _, title := range []string{"a", "b", "c"} {
			_, err = executor.Exec(ctx, &statement.Statement{SQL: `INSERT INTO post (title) VALUES (?)`, Args: []any{title}})
			So(err, ShouldBeNil)
		}

		provider, err := storage.NewIntrospector(executor, "")
		So(err, ShouldBeNil)
		catalog := NewCatalog(provider, executor)

		Convey("表名有序", func() {
			names, err := catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"author", "post"})
		})

		Convey("表结构", func() {
			table, ok, err := catalog.GetTableMetadata(ctx, "post")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(table.ColumnNames(), ShouldResemble, []string{"id", "title"})

			_, ok, err = catalog.GetTableMetadata(ctx, "missing")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("行数", func() {
			count, err := catalog.GetRowCount(ctx, "post")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, int64(3))

			count, err = catalog.GetRowCount(ctx, "author")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, int64(0))

			_, err = catalog.GetRowCount(ctx, "missing")
			So(rdb.IsKind(err, rdb.KindTableNotFound), ShouldBeTrue)
		})

		Convey("新建的表在访问时被发现", func() {
			names, err := catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldHaveLength, 2)

			_, err = executor.Exec(ctx, &statement.Statement{SQL: `CREATE TABLE comment (id INTEGER PRIMARY KEY)`})
			So(err, ShouldBeNil)

			_, ok, err := catalog.GetTableMetadata(ctx, "comment")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			names, err = catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"author", "comment", "post"})
		})

		Convey("刷新后重新发现", func() {
			names, err := catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldHaveLength, 2)

			_, err = executor.Exec(ctx, &statement.Statement{SQL: `CREATE TABLE tag (id INTEGER PRIMARY KEY)`})
			So(err, ShouldBeNil)
			catalog.Refresh()
			names, err = catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"author", "post", "tag"})
		})

		Convey("视图和系统表不可见", func() {
			_, err := executor.Exec(ctx, &statement.Statement{SQL: `CREATE TABLE seq (id INTEGER PRIMARY KEY AUTOINCREMENT)`})
			So(err, ShouldBeNil)
			_, err = executor.Exec(ctx, &statement.Statement{SQL: `INSERT INTO seq DEFAULT VALUES`})
			So(err, ShouldBeNil)
			_, err = executor.Exec(ctx, &statement.Statement{SQL: `CREATE VIEW post_titles AS SELECT title FROM post`})
			So(err, ShouldBeNil)

			for _, name := range []string{"sqlite_master", "sqlite_sequence", "post_titles"} {
				_, ok, err := catalog.GetTableMetadata(ctx, name)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)

				_, err = catalog.GetRowCount(ctx, name)
				So(rdb.IsKind(err, rdb.KindTableNotFound), ShouldBeTrue)
			}

			names, err := catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"author", "post", "seq"})
		})
	})
}

func TestCatalogCache(t *testing.T) {
	Convey("测试缓存", t, func() {
		ctx := context.Background()
		table, err := schema.NewTable("user", []schema.Column{{Name: "id", NativeType: "integer", PrimaryKey: true}})
		So(err, ShouldBeNil)
		provider := &countingProvider{tables: map[string]*schema.Table{"user": table}}
		catalog := NewCatalog(provider, storage.NewSQLWithDB(nil, statement.SQLite))

		for i := 0; i < 3; i++ {
			_, err := catalog.ListTableNames(ctx)
			So(err, ShouldBeNil)
			_, ok, err := catalog.GetTableMetadata(ctx, "user")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			_, ok, err = catalog.GetTableMetadata(ctx, "missing")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		}
		// 不存在的表每次都重新读取表名列表，且不会调用 DescribeTable
		So(provider.listCalls, ShouldEqual, 4)
		So(provider.descCalls, ShouldEqual, 1)

		Convey("返回的表名是副本", func() {
			names, _ := catalog.ListTableNames(ctx)
			names[0] = "changed"
			names, _ = catalog.ListTableNames(ctx)
			So(names, ShouldResemble, []string{"user"})
		})

		Convey("存储错误", func() {
			provider.err = errors.New("connection refused")
			catalog.Refresh()
			_, err := catalog.ListTableNames(ctx)
			So(rdb.IsKind(err, rdb.KindStorageError), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection refused")
		})
	})
}

func TestToInt64(t *testing.T) {
	Convey("测试计数值转换", t, func() {
		for _, v := range []any{int64(7), int32(7), 7, uint64(7), float64(7), []byte("7"), "7"} {
			i, err := ToInt64(v)
			So(err, ShouldBeNil)
			So(i, ShouldEqual, int64(7))
		}
		i, err := ToInt64(nil)
		So(err, ShouldBeNil)
		So(i, ShouldEqual, int64(0))

		_, err = ToInt64("seven")
		So(err, ShouldNotBeNil)
		_, err = ToInt64(true)
		So(err, ShouldNotBeNil)
	})
}
