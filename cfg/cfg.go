// Package cfg 从配置文件和环境变量加载选项结构体
//
// 选项结构体通过 tag 描述自身：
//   - `cfg:"name"` 配置中的键名，`cfg:"-"` 表示不从配置加载
//   - `def:"value"` 字段为零值时使用的默认值，切片用逗号分隔
//   - `validate:"..."` go-playground/validator 的校验规则
//
// 加载顺序：配置文件 -> 环境变量覆盖 -> 默认值 -> 校验
package cfg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Load 加载配置文件到 object，filename 为空时只使用环境变量和默认值
// envPrefix 为空时不读取环境变量
func Load(filename string, envPrefix string, object any) error {
	data := map[string]any{}
	if filename != "" {
		buf, err := os.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "read config file %s failed", filename)
		}
		data, err = Decode(buf, formatOf(filename))
		if err != nil {
			return errors.WithMessagef(err, "decode config file %s failed", filename)
		}
	}

	if envPrefix != "" {
		if err := OverlayEnv(data, envPrefix, object, os.LookupEnv); err != nil {
			return errors.WithMessage(err, "overlay env failed")
		}
	}

	return Convert(data, object)
}

// Convert 将解码后的配置映射到 object，然后补全默认值并校验
func Convert(data map[string]any, object any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "cfg",
		WeaklyTypedInput: true,
		Result:           object,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrap(err, "mapstructure.NewDecoder failed")
	}
	if err := decoder.Decode(data); err != nil {
		return errors.Wrap(err, "decode config failed")
	}

	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "SetDefaults failed")
	}
	if err := Validate(object); err != nil {
		return errors.WithMessage(err, "Validate failed")
	}
	return nil
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
