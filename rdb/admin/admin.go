// Package admin 面向未知 schema 的通用数据管理引擎
//
// 所有操作先通过 Catalog 解析表结构，表不存在时在发出任何语句之前返回 TableNotFound。
// 写操作返回变更后的完整行，调用方可以直接替换乐观更新的临时状态。
package admin

import (
	"context"
	"strings"

	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Admin 数据管理操作集合
type Admin interface {
	ListTableNames(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context) ([]TableSummary, error)
	GetTableMetadata(ctx context.Context, table string) (*schema.Table, bool, error)
	GetRowCount(ctx context.Context, table string) (int64, error)

	List(ctx context.Context, table string, spec QuerySpec) (*ListResult, error)
	Get(ctx context.Context, table string, id any) (record.Record, error)
	Insert(ctx context.Context, table string, data record.Record) (record.Record, error)
	UpdateRow(ctx context.Context, table string, id any, data record.Record) (record.Record, error)
	UpdateCell(ctx context.Context, table string, id any, column string, value any) (record.Record, error)
	Delete(ctx context.Context, table string, id any) error
}

// Sort 排序条件，Direction 为 asc 或 desc，其他值按 asc 处理
type Sort struct {
	Column    string `json:"column"`
	Direction string `json:"direction,omitempty"`
}

func (s *Sort) Desc() bool {
	return strings.EqualFold(s.Direction, SortDesc)
}

// QuerySpec 列表查询参数
type QuerySpec struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   *Sort  `json:"sort,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// Normalize 补全默认值：Page 小于 1 按 1 处理，Limit 为 0 时取默认值，超出范围时报错
func (s QuerySpec) Normalize() (QuerySpec, error) {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.Limit == 0 {
		s.Limit = DefaultLimit
	}
	if s.Limit < 1 || s.Limit > MaxLimit {
		return s, rdb.ErrValidationFailed("limit", "must be between 1 and 100")
	}
	if strings.TrimSpace(s.Filter) == "" {
		s.Filter = ""
	}
	return s, nil
}

// Offset 当前页第一行的偏移量
func (s QuerySpec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// ListResult 分页结果
type ListResult struct {
	Rows       []record.Record `json:"rows"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int64           `json:"totalPages"`
}

// TableSummary 表名及行数
type TableSummary struct {
	Name     string `json:"name"`
	RowCount int64  `json:"rowCount"`
}

// TotalPages 向上取整
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
