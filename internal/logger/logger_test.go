package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   zapcore.Level
		wantOK bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"INFO", zapcore.InfoLevel, true},
		{" warn ", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("parseLevel(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With(String("component", "bus"))

	log.Warn("publish failed", Int("attempt", 2))
	log.Infof("subscribed to %s", "devs:search:invalidations")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["component"]; got != "bus" {
		t.Errorf("component = %v, want bus", got)
	}
	if got := entries[0].ContextMap()["attempt"]; got != int64(2) {
		t.Errorf("attempt = %v, want 2", got)
	}
	if entries[1].Message != "subscribed to devs:search:invalidations" {
		t.Errorf("message = %q", entries[1].Message)
	}
}
