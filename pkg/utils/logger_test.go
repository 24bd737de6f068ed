package utils

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		debug     bool
		wantDebug bool
	}{
		{debug: true, wantDebug: true},
		{debug: false, wantDebug: false},
	}
	for _, tt := range tests {
		logger, err := NewLogger(tt.debug)
		if err != nil {
			t.Fatalf("NewLogger(%v) error: %v", tt.debug, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
			t.Errorf("NewLogger(%v): debug enabled = %v, want %v", tt.debug, got, tt.wantDebug)
		}
		if !logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("NewLogger(%v): info level disabled", tt.debug)
		}
		_ = logger.Sync()
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop should keep a non-nil logger")
	}
}
