package log

import (
	"testing"

	"github.com/hatlonely/dbadmin/log/logger"
)

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}

	prev := Default()
	defer SetDefault(prev)

	nop := logger.NewNop()
	SetDefault(nop)
	if Default() != nop {
		t.Error("SetDefault() did not replace the default logger")
	}
	SetDefault(nil)
	if Default() != nop {
		t.Error("SetDefault(nil) should be ignored")
	}
}

func TestNewLoggerWithOptions(t *testing.T) {
	l, err := NewLoggerWithOptions(nil)
	if err != nil || l != Default() {
		t.Fatalf("NewLoggerWithOptions(nil) = %v, %v", l, err)
	}

	l, err = NewLoggerWithOptions(&logger.SLogOptions{Level: "debug", Format: "json"})
	if err != nil || l == nil {
		t.Fatalf("NewLoggerWithOptions() = %v, %v", l, err)
	}

	if _, err := NewLoggerWithOptions(&logger.SLogOptions{Level: "trace"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
