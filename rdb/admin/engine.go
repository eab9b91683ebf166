package admin

import (
	"context"
	"sort"

	"github.com/hatlonely/dbadmin/log/logger"
	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/catalog"
	"github.com/hatlonely/dbadmin/rdb/lifecycle"
	"github.com/hatlonely/dbadmin/rdb/query"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/rdb/statement"
	"github.com/hatlonely/dbadmin/rdb/storage"
	"github.com/pkg/errors"
)

// Engine Admin 的实现，无状态，可并发使用
type Engine struct {
	catalog  *catalog.Catalog
	executor storage.Executor
	builder  *statement.Builder
	policy   *lifecycle.Policy
	logger   logger.Logger
}

func NewEngine(catalog *catalog.Catalog, executor storage.Executor, policy *lifecycle.Policy, l logger.Logger) *Engine {
	if l == nil {
		l = logger.NewNop()
	}
	return &Engine{
		catalog:  catalog,
		executor: executor,
		builder:  statement.NewBuilder(executor.Dialect()),
		policy:   policy,
		logger:   l.WithGroup("admin"),
	}
}

func (e *Engine) ListTableNames(ctx context.Context) ([]string, error) {
	return e.catalog.ListTableNames(ctx)
}

func (e *Engine) GetTableMetadata(ctx context.Context, table string) (*schema.Table, bool, error) {
	return e.catalog.GetTableMetadata(ctx, table)
}

func (e *Engine) GetRowCount(ctx context.Context, table string) (int64, error) {
	return e.catalog.GetRowCount(ctx, table)
}

func (e *Engine) ListTables(ctx context.Context) ([]TableSummary, error) {
	names, err := e.catalog.ListTableNames(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]TableSummary, 0, len(names))
	for _, name := range names {
		count, err := e.catalog.GetRowCount(ctx, name)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, TableSummary{Name: name, RowCount: count})
	}
	return summaries, nil
}

func (e *Engine) List(ctx context.Context, name string, spec QuerySpec) (*ListResult, error) {
	table, err := e.catalog.Table(ctx, name)
	if err != nil {
		return nil, err
	}
	spec, err = spec.Normalize()
	if err != nil {
		return nil, err
	}

	var order *statement.Order
	if spec.Sort != nil && spec.Sort.Column != "" {
		col, ok := table.Column(spec.Sort.Column)
		if !ok {
			return nil, rdb.ErrUnknownSortColumn(name, spec.Sort.Column)
		}
		order = &statement.Order{Column: col.Ident(), Desc: spec.Sort.Desc()}
	}

	where := e.filter(ctx, table, spec.Filter)

	countStmt, err := e.builder.Count(table, where)
	if err != nil {
		return nil, errors.Wrap(err, "build count statement failed")
	}
	countRows, err := e.query(ctx, countStmt)
	if err != nil {
		return nil, err
	}
	var total int64
	if len(countRows) > 0 {
		if total, err = catalog.ToInt64(countRows[0]["total"]); err != nil {
			return nil, rdb.ErrStorage(err)
		}
	}

	selectStmt, err := e.builder.Select(table, statement.SelectOptions{
		Where:  where,
		Order:  order,
		Limit:  spec.Limit,
		Offset: spec.Offset(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "build select statement failed")
	}
	rows, err := e.query(ctx, selectStmt)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Rows:       make([]record.Record, 0, len(rows)),
		Total:      total,
		Page:       spec.Page,
		TotalPages: TotalPages(total, spec.Limit),
	}
	for _, row := range rows {
		result.Rows = append(result.Rows, record.FromRow(table, row))
	}
	return result, nil
}

// filter 在所有文本列上做包含匹配，任一列命中即可
func (e *Engine) filter(ctx context.Context, table *schema.Table, filter string) query.Query {
	if filter == "" {
		return nil
	}
	columns := table.ColumnsOfType(schema.TypeText)
	if len(columns) == 0 {
		e.logger.DebugContext(ctx, "filter ignored, table has no text columns", "table", table.Name)
		return nil
	}
	matches := make([]query.Query, 0, len(columns))
	for _, col := range columns {
		matches = append(matches, &query.MatchQuery{Field: col.Ident(), Value: filter})
	}
	return query.Or(matches...)
}

func (e *Engine) Get(ctx context.Context, name string, id any) (record.Record, error) {
	table, pk, key, err := e.resolveKey(ctx, name, id)
	if err != nil {
		return nil, err
	}
	row, err := e.selectByKey(ctx, table, pk, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, rdb.ErrRowNotFound(name, id)
	}
	return record.FromRow(table, row), nil
}

func (e *Engine) Insert(ctx context.Context, name string, data record.Record) (record.Record, error) {
	table, err := e.catalog.Table(ctx, name)
	if err != nil {
		return nil, err
	}

	filled, err := e.policy.ApplyInsert(ctx, table, data)
	if err != nil {
		return nil, rdb.ErrStorage(err)
	}
	values, err := record.NewValidator(table).Validate(filled)
	if err != nil {
		return nil, err
	}

	// 只写入声明过的列，未知的键直接丢弃
	assignments := assignmentsOf(table, values)
	stmt, err := e.builder.Insert(table, assignments)
	if err != nil {
		return nil, errors.Wrap(err, "build insert statement failed")
	}

	if e.builder.Dialect().Returning() {
		rows, err := e.query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, rdb.ErrInsertFailed(name)
		}
		return record.FromRow(table, rows[0]), nil
	}

	res, err := e.exec(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, rdb.ErrInsertFailed(name)
	}

	pk, ok := table.PrimaryKey()
	if !ok {
		return recordOf(table, values), nil
	}
	key, ok := values[pk.Name]
	if !ok || key.IsNull() {
		if res.LastInsertID == 0 {
			return nil, rdb.ErrInsertFailed(name)
		}
		key = record.BigInt(res.LastInsertID)
	}
	row, err := e.selectByKey(ctx, table, pk, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, rdb.ErrInsertFailed(name)
	}
	return record.FromRow(table, row), nil
}

func (e *Engine) UpdateRow(ctx context.Context, name string, id any, data record.Record) (record.Record, error) {
	table, pk, key, err := e.resolveKey(ctx, name, id)
	if err != nil {
		return nil, err
	}

	changes := e.policy.StripPrimaryKey(table, data)
	columns := make([]string, 0, len(changes))
	for column := range changes {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		if _, ok := table.Column(column); !ok {
			return nil, rdb.ErrUnknownColumn(name, column)
		}
	}
	if len(changes) == 0 {
		return nil, rdb.ErrNoUpdateData()
	}

	values, err := record.NewValidator(table).Validate(e.policy.ApplyUpdate(table, changes))
	if err != nil {
		return nil, err
	}

	where := &query.TermQuery{Field: pk.Ident(), Value: e.builder.Dialect().Arg(key)}
	stmt, err := e.builder.Update(table, assignmentsOf(table, values), where)
	if err != nil {
		return nil, errors.Wrap(err, "build update statement failed")
	}

	if e.builder.Dialect().Returning() {
		rows, err := e.query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, rdb.ErrRowNotFound(name, id)
		}
		return record.FromRow(table, rows[0]), nil
	}

	// 值未变化时部分驱动返回 0 行受影响，统一以回查结果为准
	if _, err := e.exec(ctx, stmt); err != nil {
		return nil, err
	}
	row, err := e.selectByKey(ctx, table, pk, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, rdb.ErrRowNotFound(name, id)
	}
	return record.FromRow(table, row), nil
}

func (e *Engine) UpdateCell(ctx context.Context, name string, id any, column string, value any) (record.Record, error) {
	table, err := e.catalog.Table(ctx, name)
	if err != nil {
		return nil, err
	}
	col, ok := table.Column(column)
	if !ok {
		return nil, rdb.ErrUnknownColumn(name, column)
	}
	if col.PrimaryKey {
		return nil, rdb.ErrPrimaryKeyImmutable(column)
	}
	return e.UpdateRow(ctx, name, id, record.Record{column: value})
}

func (e *Engine) Delete(ctx context.Context, name string, id any) error {
	table, pk, key, err := e.resolveKey(ctx, name, id)
	if err != nil {
		return err
	}
	stmt, err := e.builder.Delete(table, &query.TermQuery{Field: pk.Ident(), Value: e.builder.Dialect().Arg(key)})
	if err != nil {
		return errors.Wrap(err, "build delete statement failed")
	}
	res, err := e.exec(ctx, stmt)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return rdb.ErrRowNotFound(name, id)
	}
	return nil
}

// resolveKey 解析表和主键，并把 id 投影为主键列的类型，投影失败视为行不存在
func (e *Engine) resolveKey(ctx context.Context, name string, id any) (*schema.Table, *schema.Column, record.Value, error) {
	table, err := e.catalog.Table(ctx, name)
	if err != nil {
		return nil, nil, record.Value{}, err
	}
	pk, ok := table.PrimaryKey()
	if !ok {
		return nil, nil, record.Value{}, rdb.ErrNoPrimaryKey(name)
	}
	key, err := record.NewValidator(table).ValidateField(pk.Name, id)
	if err != nil {
		// 无法转换为主键类型的 id 不可能对应任何行
		if rdb.IsKind(err, rdb.KindValidationFailed) {
			return nil, nil, record.Value{}, rdb.ErrRowNotFound(name, id)
		}
		return nil, nil, record.Value{}, err
	}
	return table, pk, key, nil
}

func (e *Engine) selectByKey(ctx context.Context, table *schema.Table, pk *schema.Column, key record.Value) (map[string]any, error) {
	stmt, err := e.builder.Select(table, statement.SelectOptions{
		Where: &query.TermQuery{Field: pk.Ident(), Value: e.builder.Dialect().Arg(key)},
		Limit: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build select statement failed")
	}
	rows, err := e.query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (e *Engine) query(ctx context.Context, stmt *statement.Statement) ([]map[string]any, error) {
	e.logger.DebugContext(ctx, "query", "sql", stmt.SQL, "args", len(stmt.Args))
	rows, err := e.executor.Query(ctx, stmt)
	if err != nil {
		e.logger.ErrorContext(ctx, "query failed", "sql", stmt.SQL, "error", err)
		return nil, rdb.ErrStorage(err)
	}
	return rows, nil
}

func (e *Engine) exec(ctx context.Context, stmt *statement.Statement) (storage.Result, error) {
	e.logger.DebugContext(ctx, "exec", "sql", stmt.SQL, "args", len(stmt.Args))
	res, err := e.executor.Exec(ctx, stmt)
	if err != nil {
		e.logger.ErrorContext(ctx, "exec failed", "sql", stmt.SQL, "error", err)
		return storage.Result{}, rdb.ErrStorage(err)
	}
	return res, nil
}

// assignmentsOf 按列的声明顺序生成赋值，忽略表中不存在的键
func assignmentsOf(table *schema.Table, values map[string]record.Value) []statement.Assignment {
	assignments := make([]statement.Assignment, 0, len(values))
	for i := range table.Columns {
		col := &table.Columns[i]
		if value, ok := values[col.Name]; ok {
			assignments = append(assignments, statement.Assignment{Column: col.Ident(), Value: value})
		}
	}
	return assignments
}

func recordOf(table *schema.Table, values map[string]record.Value) record.Record {
	rec := make(record.Record, len(values))
	for i := range table.Columns {
		if value, ok := values[table.Columns[i].Name]; ok {
			rec[table.Columns[i].Name] = value.Decode()
		}
	}
	return rec
}
