package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":  logrus.DebugLevel,
		"warn":   logrus.WarnLevel,
		"ERROR":  logrus.ErrorLevel,
		"chatty": logrus.InfoLevel,
		"":       logrus.InfoLevel,
	}
	for in, want := range tests {
		if got := New(in).GetLevel(); got != want {
			t.Errorf("New(%q) level = %s, want %s", in, got, want)
		}
	}
}

func TestNewUsesJSON(t *testing.T) {
	if _, ok := New("info").Formatter.(*logrus.JSONFormatter); !ok {
		t.Error("logger is not emitting JSON")
	}
}
