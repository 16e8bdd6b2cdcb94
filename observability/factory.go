package observability

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported logger backends.
const (
	BackendZap     = "zap"
	BackendLogrus  = "logrus"
	BackendSlog    = "slog"
	BackendDefault = "default"
	BackendNone    = "none"
)

// LogOptions selects and configures a Logger implementation.
type LogOptions struct {
	Backend string
	Level   string
	// Format is "json" or "text".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// NewLogger builds the Logger described by opts.
func NewLogger(opts LogOptions) (Logger, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Level == "" {
		opts.Level = "info"
	}
	json := !strings.EqualFold(opts.Format, "text")

	switch strings.ToLower(opts.Backend) {
	case "", BackendZap:
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder := zapcore.NewConsoleEncoder(encoderConfig)
		if json {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		}
		core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), level)
		return NewZapLogger(zap.New(core)), nil

	case BackendLogrus:
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		logger := logrus.New()
		logger.SetOutput(opts.Output)
		logger.SetLevel(level)
		if json {
			logger.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
		return NewLogrusLogger(logger), nil

	case BackendSlog:
		var level slog.Level
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		handlerOpts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler = slog.NewTextHandler(opts.Output, handlerOpts)
		if json {
			handler = slog.NewJSONHandler(opts.Output, handlerOpts)
		}
		return NewSlogLogger(slog.New(handler)), nil

	case BackendDefault:
		return &DefaultLogger{
			Logger: log.New(opts.Output, "", log.LstdFlags),
			fields: make(map[string]interface{}),
		}, nil

	case BackendNone:
		return NewNullLogger(), nil
	}

	return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
}

// Sync flushes the logger if its backend buffers output.
func Sync(logger Logger) error {
	if z, ok := logger.(*ZapLogger); ok {
		return z.Sync()
	}
	return nil
}
