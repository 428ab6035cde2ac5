package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "defaults", cfg: NewDefaultConfig()},
		{name: "console format", cfg: &Config{Level: "debug", Format: "console"}},
		{name: "bad level", cfg: &Config{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: &Config{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewLogger() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if logger == nil {
				t.Fatal("NewLogger() returned nil logger")
			}
		})
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	if fields := ContextFields(ctx); len(fields) != 0 {
		t.Errorf("empty context produced %d fields", len(fields))
	}

	ctx = WithRequestID(ctx, "3b241101-e2bb-4255-8caf-4136c566a962")
	ctx = WithRole(ctx, "consumer")

	logger := NewTestLogger()
	logger.Info(ctx, "decision made")

	entries := logger.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fieldMap := entries[0].ContextMap()
	if fieldMap["request.id"] != "3b241101-e2bb-4255-8caf-4136c566a962" {
		t.Errorf("request.id = %v", fieldMap["request.id"])
	}
	if fieldMap["user.role"] != "consumer" {
		t.Errorf("user.role = %v", fieldMap["user.role"])
	}
}

func TestRedactedString(t *testing.T) {
	field := RedactedString("filter", "secret user content")
	enc := zapcore.NewMapObjectEncoder()
	field.AddTo(enc)

	val, ok := enc.Fields["filter"].(string)
	if !ok || val != "[REDACTED:19]" {
		t.Errorf("RedactedString value = %v, want [REDACTED:19]", enc.Fields["filter"])
	}
}

func TestTestLogger_AssertLogged(t *testing.T) {
	logger := NewTestLogger()
	logger.Warn(context.Background(), "query rejected", zap.String("reason", "bad collection"))
	logger.AssertLogged(t, zapcore.WarnLevel, "query rejected")
}
