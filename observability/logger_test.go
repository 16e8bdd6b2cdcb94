package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &DefaultLogger{Logger: log.New(&buf, "", 0), fields: map[string]interface{}{}}

	logger.WithFields(map[string]interface{}{"user_id": "u1", "attempt": 2}).
		WithErr(errors.New("boom")).
		Errorf("turn failed after %d ms", 15)

	assert.Equal(t, "[attempt=2 user_id=u1 error=boom] [ERROR] turn failed after 15 ms\n", buf.String())

	buf.Reset()
	logger.Info("plain")
	assert.Equal(t, "[INFO] plain\n", buf.String())
}

func TestDefaultLogger_WithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := &DefaultLogger{Logger: log.New(&buf, "", 0), fields: map[string]interface{}{"a": 1}}

	_ = parent.WithFields(map[string]interface{}{"b": 2})
	parent.Info("x")

	assert.Equal(t, "[a=1] [INFO] x\n", buf.String())
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	assert.NotPanics(t, func() {
		logger.WithFields(map[string]interface{}{"k": "v"}).WithErr(errors.New("e")).Errorf("%s", "x")
		logger.Debug("x")
	})
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})

	NewLogrusLogger(base).
		WithFields(map[string]interface{}{"user_id": "u1"}).
		WithErr(errors.New("store down")).
		Warn("history not persisted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "history not persisted", entry["msg"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "store down", entry[ErrorLogField])
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.WithFields(map[string]interface{}{"route": "/chat"}).Infof("served %d", 200)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "served 200", entry["msg"])
	assert.Equal(t, "/chat", entry["route"])
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.WithFields(map[string]interface{}{"user_id": "u1"}).WithErr(errors.New("timeout")).Error("completion failed")
	logger.Debugf("tokens=%d", 5)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "completion failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "timeout", fields[ErrorLogField])
	assert.Equal(t, "tokens=5", entries[1].Message)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		opts     LogOptions
		wantErr  bool
		contains string
	}{
		{name: "zap json", opts: LogOptions{Backend: BackendZap, Format: "json"}, contains: `"msg":"hello"`},
		{name: "zap is default backend", opts: LogOptions{}, contains: `"msg":"hello"`},
		{name: "logrus text", opts: LogOptions{Backend: BackendLogrus, Format: "text"}, contains: "msg=hello"},
		{name: "slog json", opts: LogOptions{Backend: BackendSlog, Format: "json"}, contains: `"msg":"hello"`},
		{name: "default", opts: LogOptions{Backend: BackendDefault}, contains: "[INFO] hello"},
		{name: "none", opts: LogOptions{Backend: BackendNone}},
		{name: "unknown backend", opts: LogOptions{Backend: "syslog"}, wantErr: true},
		{name: "bad zap level", opts: LogOptions{Backend: BackendZap, Level: "loud"}, wantErr: true},
		{name: "bad logrus level", opts: LogOptions{Backend: BackendLogrus, Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Output = &buf

			logger, err := NewLogger(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			logger.Info("hello")
			require.NoError(t, Sync(logger))

			if tt.contains == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.True(t, strings.Contains(buf.String(), tt.contains), buf.String())
		})
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogOptions{Backend: BackendLogrus, Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
