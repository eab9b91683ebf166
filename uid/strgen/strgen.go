// Package strgen 字符串主键生成器
package strgen

// StrGenerator 生成字符串UID的接口
type StrGenerator interface {
	Generate() string
}
