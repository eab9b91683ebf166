// Package intgen 64 位整数主键生成器
package intgen

import (
	"context"

	"github.com/pkg/errors"
)

// IntGenerator 生成64位整数UID的接口
type IntGenerator interface {
	Generate(ctx context.Context) (int64, error)
}

// Options 生成器配置，Type 决定使用哪一个子配置
type Options struct {
	Type      string           `cfg:"type" def:"snowflake" validate:"oneof=snowflake redis"`
	Snowflake SnowflakeOptions `cfg:"snowflake"`
	Redis     RedisOptions     `cfg:"redis"`
}

// NewIntGeneratorWithOptions 根据类型创建整数生成器
func NewIntGeneratorWithOptions(options *Options) (IntGenerator, error) {
	if options == nil {
		return NewSnowflakeGenerator(nil), nil
	}
	switch options.Type {
	case "snowflake", "":
		return NewSnowflakeGenerator(&options.Snowflake), nil
	case "redis":
		generator, err := NewRedisGeneratorWithOptions(&options.Redis)
		if err != nil {
			return nil, err
		}
		return generator, nil
	}
	return nil, errors.Errorf("unsupported int generator type: %s", options.Type)
}
