package statement

import (
	"fmt"
	"strings"

	"github.com/hatlonely/dbadmin/rdb/query"
	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/pkg/errors"
)

// Statement 参数化语句
type Statement struct {
	SQL  string
	Args []any
}

func (s *Statement) String() string {
	return fmt.Sprintf("%s %v", s.SQL, s.Args)
}

// Order 排序
type Order struct {
	Column schema.Identifier
	Desc   bool
}

// SelectOptions 查询选项，Limit 为 0 时不分页
type SelectOptions struct {
	Where  query.Query
	Order  *Order
	Limit  int
	Offset int
}

// Assignment 列赋值
type Assignment struct {
	Column schema.Identifier
	Value  record.Value
}

// Builder 语句构建器
type Builder struct {
	dialect *Dialect
}

func NewBuilder(dialect *Dialect) *Builder {
	return &Builder{dialect: dialect}
}

func (b *Builder) Dialect() *Dialect {
	return b.dialect
}

// quote 是唯一把标识符写入 SQL 的地方，内嵌的引号字符会被双写
func (b *Builder) quote(id schema.Identifier) string {
	q := string(b.dialect.quoteChar)
	return q + strings.ReplaceAll(id.Name(), q, q+q) + q
}

// writer 在一条语句内累积绑定参数，实现 query.Renderer
type writer struct {
	b    *Builder
	sb   strings.Builder
	args []any
	err  error
}

func (b *Builder) newWriter() *writer {
	return &writer{b: b}
}

// Ident 零值标识符不会写入语句，错误在 statement 中返回
func (w *writer) Ident(id schema.Identifier) string {
	if id.IsZero() {
		if w.err == nil {
			w.err = errors.New("identifier is not derived from table metadata")
		}
		return ""
	}
	return w.b.quote(id)
}

func (w *writer) Bind(value any) string {
	w.args = append(w.args, value)
	return w.b.dialect.Placeholder(len(w.args))
}

func (w *writer) Contains(field schema.Identifier, pattern string) string {
	return w.b.dialect.Contains(w.Ident(field), pattern)
}

func (w *writer) write(parts ...string) {
	for _, part := range parts {
		w.sb.WriteString(part)
	}
}

func (w *writer) where(q query.Query) error {
	if q == nil {
		return nil
	}
	condition, err := q.ToSQL(w)
	if err != nil {
		return errors.WithMessage(err, "render where failed")
	}
	if condition != "" {
		w.write(" WHERE ", condition)
	}
	return nil
}

func (w *writer) columnList(table *schema.Table) string {
	columns := make([]string, len(table.Columns))
	for i := range table.Columns {
		columns[i] = w.Ident(table.Columns[i].Ident())
	}
	return strings.Join(columns, ", ")
}

func (w *writer) returning(table *schema.Table) {
	if w.b.dialect.returning {
		w.write(" RETURNING ", w.columnList(table))
	}
}

func (w *writer) statement() (*Statement, error) {
	if w.err != nil {
		return nil, w.err
	}
	return &Statement{SQL: w.sb.String(), Args: w.args}, nil
}

func checkTable(table *schema.Table) error {
	if table == nil {
		return errors.New("table is required")
	}
	if table.Ident().IsZero() {
		return errors.New("table must be created by schema.NewTable")
	}
	if len(table.Columns) == 0 {
		return errors.Errorf("table %s has no columns", table.Name)
	}
	return nil
}

// Select 按表的列顺序显式列出所有列
func (b *Builder) Select(table *schema.Table, opts SelectOptions) (*Statement, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	w := b.newWriter()
	w.write("SELECT ", w.columnList(table), " FROM ", w.Ident(table.Ident()))
	if err := w.where(opts.Where); err != nil {
		return nil, err
	}
	if opts.Order != nil {
		if opts.Order.Column.IsZero() {
			return nil, errors.New("order column is required")
		}
		direction := "ASC"
		if opts.Order.Desc {
			direction = "DESC"
		}
		w.write(" ORDER BY ", w.Ident(opts.Order.Column), " ", direction)
	}
	if opts.Limit > 0 {
		w.write(" LIMIT ", w.Bind(opts.Limit))
		if opts.Offset > 0 {
			w.write(" OFFSET ", w.Bind(opts.Offset))
		}
	}
	return w.statement()
}

// Count 统计满足条件的行数，结果列名为 total
func (b *Builder) Count(table *schema.Table, where query.Query) (*Statement, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	w := b.newWriter()
	w.write("SELECT COUNT(*) AS total FROM ", w.Ident(table.Ident()))
	if err := w.where(where); err != nil {
		return nil, err
	}
	return w.statement()
}

// Insert 没有赋值时插入一行默认值
func (b *Builder) Insert(table *schema.Table, assignments []Assignment) (*Statement, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	w := b.newWriter()
	w.write("INSERT INTO ", w.Ident(table.Ident()))
	if len(assignments) == 0 {
		if b.dialect == MySQL {
			w.write(" () VALUES ()")
		} else {
			w.write(" DEFAULT VALUES")
		}
	} else {
		columns := make([]string, len(assignments))
		values := make([]string, len(assignments))
		for i, a := range assignments {
			if a.Column.IsZero() {
				return nil, errors.New("assignment column is required")
			}
			columns[i] = w.Ident(a.Column)
			values[i] = w.Bind(b.dialect.Arg(a.Value))
		}
		w.write(" (", strings.Join(columns, ", "), ") VALUES (", strings.Join(values, ", "), ")")
	}
	w.returning(table)
	return w.statement()
}

// Update 至少需要一个赋值
func (b *Builder) Update(table *schema.Table, assignments []Assignment, where query.Query) (*Statement, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, errors.New("update requires at least one assignment")
	}

	w := b.newWriter()
	sets := make([]string, len(assignments))
	for i, a := range assignments {
		if a.Column.IsZero() {
			return nil, errors.New("assignment column is required")
		}
		sets[i] = w.Ident(a.Column) + " = " + w.Bind(b.dialect.Arg(a.Value))
	}
	w.write("UPDATE ", w.Ident(table.Ident()), " SET ", strings.Join(sets, ", "))
	if err := w.where(where); err != nil {
		return nil, err
	}
	w.returning(table)
	return w.statement()
}

func (b *Builder) Delete(table *schema.Table, where query.Query) (*Statement, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	w := b.newWriter()
	w.write("DELETE FROM ", w.Ident(table.Ident()))
	if err := w.where(where); err != nil {
		return nil, err
	}
	return w.statement()
}

// CreateTable 根据表元数据生成建表语句，用于结构体声明的 schema
func (b *Builder) CreateTable(table *schema.Table) (*Statement, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	var pks []schema.Identifier
	for i := range table.Columns {
		if table.Columns[i].PrimaryKey {
			pks = append(pks, table.Columns[i].Ident())
		}
	}
	autoIncrement := len(pks) == 1
	if autoIncrement {
		pk, _ := table.PrimaryKey()
		autoIncrement = pk.Type == schema.TypeInteger || pk.Type == schema.TypeBigInt
	}

	w := b.newWriter()
	var definitions []string
	for i := range table.Columns {
		col := &table.Columns[i]
		definition := w.Ident(col.Ident()) + " " + b.columnType(col, autoIncrement && col.PrimaryKey)
		if autoIncrement && col.PrimaryKey && b.dialect == SQLite {
			definitions = append(definitions, definition)
			continue
		}
		if !col.Nullable {
			definition += " NOT NULL"
		}
		if autoIncrement && col.PrimaryKey && b.dialect == MySQL {
			definition += " AUTO_INCREMENT"
		}
		if col.Unique && !col.PrimaryKey {
			definition += " UNIQUE"
		}
		definitions = append(definitions, definition)
	}
	if len(pks) > 0 && !(autoIncrement && b.dialect == SQLite) {
		names := make([]string, len(pks))
		for i, pk := range pks {
			names[i] = w.Ident(pk)
		}
		definitions = append(definitions, "PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}

	w.write("CREATE TABLE IF NOT EXISTS ", w.Ident(table.Ident()), " (\n  ", strings.Join(definitions, ",\n  "), "\n)")
	return w.statement()
}

// columnType 将列映射为方言的原生类型
func (b *Builder) columnType(col *schema.Column, autoIncrement bool) string {
	switch b.dialect {
	case SQLite:
		if autoIncrement {
			return "INTEGER PRIMARY KEY"
		}
		switch col.Type {
		case schema.TypeText:
			return "TEXT"
		case schema.TypeInteger, schema.TypeBigInt:
			return "INTEGER"
		case schema.TypeBoolean:
			return "BOOLEAN"
		case schema.TypeTimestamp:
			return "TIMESTAMP"
		case schema.TypeJSON:
			return "JSON"
		}
		if schema.FieldType(col.NativeType) == schema.FieldTypeFloat {
			return "REAL"
		}
		return "TEXT"
	case Postgres:
		switch col.Type {
		case schema.TypeText:
			return varchar(col)
		case schema.TypeInteger:
			if autoIncrement {
				return "SERIAL"
			}
			return "INTEGER"
		case schema.TypeBigInt:
			if autoIncrement {
				return "BIGSERIAL"
			}
			return "BIGINT"
		case schema.TypeBoolean:
			return "BOOLEAN"
		case schema.TypeTimestamp:
			return "TIMESTAMPTZ"
		case schema.TypeJSON:
			return "JSONB"
		}
		if schema.FieldType(col.NativeType) == schema.FieldTypeFloat {
			return "DOUBLE PRECISION"
		}
		return "TEXT"
	default:
		switch col.Type {
		case schema.TypeText:
			return varchar(col)
		case schema.TypeInteger:
			return "INT"
		case schema.TypeBigInt:
			return "BIGINT"
		case schema.TypeBoolean:
			return "BOOLEAN"
		case schema.TypeTimestamp:
			return "DATETIME(3)"
		case schema.TypeJSON:
			return "JSON"
		}
		if schema.FieldType(col.NativeType) == schema.FieldTypeFloat {
			return "DOUBLE"
		}
		return "TEXT"
	}
}

func varchar(col *schema.Column) string {
	if col.MaxLength > 0 {
		return fmt.Sprintf("VARCHAR(%d)", col.MaxLength)
	}
	return "VARCHAR(255)"
}
