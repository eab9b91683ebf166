// Package lifecycle 行写入前的统一处理：主键生成、审计时间戳、主键不可变
package lifecycle

import (
	"context"
	"time"

	"github.com/hatlonely/dbadmin/rdb/record"
	"github.com/hatlonely/dbadmin/rdb/schema"
	"github.com/hatlonely/dbadmin/uid/intgen"
	"github.com/hatlonely/dbadmin/uid/strgen"
	"github.com/pkg/errors"
)

type Options struct {
	// 自动生成值的主键列名
	IDColumn         string   `cfg:"idColumn" def:"id"`
	CreatedAtColumns []string `cfg:"createdAtColumns" def:"created_at,createdAt"`
	UpdatedAtColumns []string `cfg:"updatedAtColumns" def:"updated_at,updatedAt"`

	UUID strgen.UUIDOptions `cfg:"uuid"`

	// 整数主键的生成方式，为空时交给数据库自增
	IntGenerator string                  `cfg:"intGenerator" validate:"omitempty,oneof=snowflake redis"`
	Snowflake    intgen.SnowflakeOptions `cfg:"snowflake"`
	Redis        intgen.RedisOptions     `cfg:"redis"`

	Now func() time.Time `cfg:"-"`
}

type Policy struct {
	idColumn  string
	createdAt []string
	updatedAt []string
	strGen    strgen.StrGenerator
	intGen    intgen.IntGenerator
	now       func() time.Time
}

func NewPolicyWithOptions(options *Options) (*Policy, error) {
	if options == nil {
		options = &Options{}
	}

	strGen, err := strgen.NewUUIDGeneratorWithOptions(&options.UUID)
	if err != nil {
		return nil, errors.WithMessage(err, "strgen.NewUUIDGeneratorWithOptions failed")
	}

	p := &Policy{
		idColumn:  options.IDColumn,
		createdAt: options.CreatedAtColumns,
		updatedAt: options.UpdatedAtColumns,
		strGen:    strGen,
		now:       options.Now,
	}
	if p.idColumn == "" {
		p.idColumn = "id"
	}
	if p.createdAt == nil {
		p.createdAt = []string{"created_at", "createdAt"}
	}
	if p.updatedAt == nil {
		p.updatedAt = []string{"updated_at", "updatedAt"}
	}
	if p.now == nil {
		p.now = time.Now
	}

	if options.IntGenerator != "" {
		p.intGen, err = intgen.NewIntGeneratorWithOptions(&intgen.Options{
			Type:      options.IntGenerator,
			Snowflake: options.Snowflake,
			Redis:     options.Redis,
		})
		if err != nil {
			return nil, errors.WithMessage(err, "intgen.NewIntGeneratorWithOptions failed")
		}
	}

	return p, nil
}

// ApplyInsert 返回补全后的副本：缺失的主键按列类型生成，缺失的审计列写入当前时间
// 调用方提供的值原样保留
func (p *Policy) ApplyInsert(ctx context.Context, table *schema.Table, rec record.Record) (record.Record, error) {
	out := make(record.Record, len(rec)+3)
	for k, v := range rec {
		out[k] = v
	}

	if col, ok := table.Column(p.idColumn); ok && missing(out, col.Name) {
		switch col.Type {
		case schema.TypeText, schema.TypeOther:
			out[col.Name] = p.strGen.Generate()
		case schema.TypeInteger, schema.TypeBigInt:
			if p.intGen != nil {
				id, err := p.intGen.Generate(ctx)
				if err != nil {
					return nil, errors.WithMessage(err, "generate id failed")
				}
				out[col.Name] = id
			}
		}
	}

	now := p.now()
	for _, name := range p.createdAt {
		if col, ok := table.Column(name); ok && missing(out, name) {
			out[name] = stamp(col, now)
		}
	}
	for _, name := range p.updatedAt {
		if col, ok := table.Column(name); ok && missing(out, name) {
			out[name] = stamp(col, now)
		}
	}

	return out, nil
}

// StripPrimaryKey 返回去掉主键列的副本，主键不能通过整行更新修改
func (p *Policy) StripPrimaryKey(table *schema.Table, rec record.Record) record.Record {
	out := make(record.Record, len(rec))
	for k, v := range rec {
		if col, ok := table.Column(k); ok && col.PrimaryKey {
			continue
		}
		out[k] = v
	}
	return out
}

// ApplyUpdate 去掉主键并总是覆盖更新时间列
func (p *Policy) ApplyUpdate(table *schema.Table, rec record.Record) record.Record {
	out := p.StripPrimaryKey(table, rec)
	now := p.now()
	for _, name := range p.updatedAt {
		if col, ok := table.Column(name); ok {
			out[name] = stamp(col, now)
		}
	}
	return out
}

func missing(rec record.Record, key string) bool {
	v, ok := rec[key]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}

// stamp 文本列写 RFC3339，其余写毫秒时间戳
func stamp(col *schema.Column, now time.Time) any {
	if col.Type == schema.TypeText {
		return now.UTC().Format(time.RFC3339Nano)
	}
	return now.UnixMilli()
}
