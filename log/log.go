package log

import (
	"sync/atomic"

	"github.com/hatlonely/dbadmin/log/logger"
)

// holder 保证 atomic.Value 中存储的具体类型一致
type holder struct {
	logger logger.Logger
}

var defaultLogger atomic.Value

func init() {
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{Level: "info", Format: "text"})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	defaultLogger.Store(holder{logger: l})
}

// Default 返回进程级默认日志器
func Default() logger.Logger {
	return defaultLogger.Load().(holder).logger
}

// SetDefault 替换默认日志器，nil 被忽略
func SetDefault(l logger.Logger) {
	if l != nil {
		defaultLogger.Store(holder{logger: l})
	}
}

// NewLoggerWithOptions 创建日志器，options 为 nil 时返回默认日志器
func NewLoggerWithOptions(options *logger.SLogOptions) (logger.Logger, error) {
	if options == nil {
		return Default(), nil
	}
	return logger.NewSLogWithOptions(options)
}
