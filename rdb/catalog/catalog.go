// Package catalog 表结构目录，缓存 schema 发现的结果并提供行数统计
package catalog

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/hatlonely/dbadmin/rdb/storage"
	"github.com/pkg/errors"
)

// Catalog 表结构目录
// 表名列表和表结构在首次访问后缓存，直到调用 Refresh
type Catalog struct {
	provider schema.Provider
	executor storage.Executor
	builder  *statement.Builder

	mutex  sync.RWMutex
	names  []string
	tables map[string]*schema.Table
}

func NewCatalog(provider schema.Provider, executor storage.Executor) *Catalog {
	return &Catalog{
		provider: provider,
		executor: executor,
		builder:  statement.NewBuilder(executor.Dialect()),
		tables:   map[string]*schema.Table{},
	}
}

// ListTableNames 返回按字典序排列的表名
func (c *Catalog) ListTableNames(ctx context.Context) ([]string, error) {
	c.mutex.RLock()
	names := c.names
	c.mutex.RUnlock()
	if names != nil {
		return append([]string(nil), names...), nil
	}

	names, err := c.provider.ListTables(ctx)
	if err != nil {
		return nil, rdb.ErrStorage(err)
	}
	names = append([]string{}, names...)
	sort.Strings(names)

	c.mutex.Lock()
	c.names = names
	c.mutex.Unlock()

	return append([]string(nil), names...), nil
}

// GetTableMetadata 返回表结构，表不存在时 ok 为 false
// 只有 ListTableNames 中的表可以被解析，视图和系统表不可见；
// 名字不在缓存的表名列表中时重新读取一次列表，新建的表在下次访问时即可被发现
func (c *Catalog) GetTableMetadata(ctx context.Context, name string) (*schema.Table, bool, error) {
	c.mutex.RLock()
	table, ok := c.tables[name]
	c.mutex.RUnlock()
	if ok {
		return table, true, nil
	}

	declared, err := c.declared(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if !declared {
		return nil, false, nil
	}

	table, err = c.provider.DescribeTable(ctx, name)
	if err != nil {
		return nil, false, rdb.ErrStorage(err)
	}
	if table == nil {
		return nil, false, nil
	}

	c.mutex.Lock()
	c.tables[name] = table
	c.mutex.Unlock()

	return table, true, nil
}

func (c *Catalog) declared(ctx context.Context, name string) (bool, error) {
	names, err := c.ListTableNames(ctx)
	if err != nil {
		return false, err
	}
	if contains(names, name) {
		return true, nil
	}

	names, err = c.provider.ListTables(ctx)
	if err != nil {
		return false, rdb.ErrStorage(err)
	}
	names = append([]string{}, names...)
	sort.Strings(names)

	c.mutex.Lock()
	c.names = names
	c.mutex.Unlock()

	return contains(names, name), nil
}

func contains(sorted []string, name string) bool {
	i := sort.SearchStrings(sorted, name)
	return i < len(sorted) && sorted[i] == name
}

// Table 返回表结构，表不存在时返回 TableNotFound
func (c *Catalog) Table(ctx context.Context, name string) (*schema.Table, error) {
	table, ok, err := c.GetTableMetadata(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rdb.ErrTableNotFound(name)
	}
	return table, nil
}

// GetRowCount 返回表的总行数
func (c *Catalog) GetRowCount(ctx context.Context, name string) (int64, error) {
	table, err := c.Table(ctx, name)
	if err != nil {
		return 0, err
	}
	stmt, err := c.builder.Count(table, nil)
	if err != nil {
		return 0, errors.Wrap(err, "build count statement failed")
	}
	rows, err := c.executor.Query(ctx, stmt)
	if err != nil {
		return 0, rdb.ErrStorage(err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return ToInt64(rows[0]["total"])
}

// Refresh 清空缓存，下次访问时重新发现
func (c *Catalog) Refresh() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.names = nil
	c.tables = map[string]*schema.Table{}
}

// ToInt64 将驱动返回的计数值转为 int64
func ToInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case int:
		return int64(val), nil
	case uint64:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case []byte:
		return parseInt64(string(val))
	case string:
		return parseInt64(val)
	case nil:
		return 0, nil
	}
	return 0, errors.Errorf("unexpected count value type %T", v)
}

func parseInt64(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse count %q failed", s)
	}
	return i, nil
}
