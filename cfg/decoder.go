package cfg

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Decode 按格式把配置内容解码为嵌套的 map
// 支持 yaml / yml / json / toml / ini
func Decode(data []byte, format string) (map[string]any, error) {
	result := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "yaml.Unmarshal failed")
		}
	case "json":
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "json.Unmarshal failed")
		}
	case "toml":
		if _, err := toml.Decode(string(data), &result); err != nil {
			return nil, errors.Wrap(err, "toml.Decode failed")
		}
	case "ini":
		return decodeIni(data)
	default:
		return nil, errors.Errorf("unsupported config format: %q", format)
	}
	return result, nil
}

// decodeIni section 作为嵌套的键，带点的 section 名展开为多层，例如 [lifecycle.redis]
func decodeIni(data []byte) (map[string]any, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:           true,
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "ini.LoadSources failed")
	}

	result := map[string]any{}
	for _, section := range file.Sections() {
		target := result
		if section.Name() != ini.DefaultSection {
			for _, part := range strings.Split(section.Name(), ".") {
				target = childMap(target, part)
			}
		}
		for _, key := range section.Keys() {
			target[key.Name()] = key.String()
		}
	}
	return result, nil
}

// childMap 返回 key 对应的子 map，不存在时创建，键名大小写不敏感
func childMap(m map[string]any, key string) map[string]any {
	if existing, ok := lookupKey(m, key); ok {
		if child, ok := m[existing].(map[string]any); ok {
			return child
		}
		delete(m, existing)
	}
	child := map[string]any{}
	m[key] = child
	return child
}

func lookupKey(m map[string]any, key string) (string, bool) {
	if _, ok := m[key]; ok {
		return key, true
	}
	for k := range m {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}
