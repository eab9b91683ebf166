package writer

import (
	"fmt"
	"io"
)

// Writer 日志输出器接口
type Writer interface {
	io.Writer
	io.Closer
}

// Options 输出器配置，Type 决定使用哪一个子配置
type Options struct {
	Type    string               `cfg:"type" def:"console" validate:"oneof=console file"`
	Console ConsoleWriterOptions `cfg:"console"`
	File    FileWriterOptions    `cfg:"file"`
}

// NewWriterWithOptions 根据类型创建输出器
func NewWriterWithOptions(options *Options) (Writer, error) {
	if options == nil {
		return NewConsoleWriterWithOptions(nil)
	}
	switch options.Type {
	case "console", "":
		return NewConsoleWriterWithOptions(&options.Console)
	case "file":
		return NewFileWriterWithOptions(&options.File)
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", options.Type)
	}
}
