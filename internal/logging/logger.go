package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used throughout the engine.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, err error, fields ...zap.Field)
	Fatal(msg string, err error, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	Sync() error
}

// zapLogger implements Logger using zap.
type zapLogger struct {
	logger *zap.Logger
}

// LoggerConfig defines logger configuration
type LoggerConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	Development bool   `yaml:"development"`
}

// NewLogger creates a new structured logger based on configuration
func NewLogger(config LoggerConfig) (Logger, error) {
	// Parse log level
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	// Configure encoder
	var encoderConfig zapcore.EncoderConfig
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	}

	// Choose encoder format
	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", config.Format)
	}

	// Configure output
	var writeSyncer zapcore.WriteSyncer
	switch strings.ToLower(config.Output) {
	case "stdout", "":
		writeSyncer = zapcore.AddSync(os.Stdout)
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	default:
		// File output
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writeSyncer = zapcore.AddSync(file)
	}

	// Create core and logger
	core := zapcore.NewCore(encoder, writeSyncer, level)
	
	// Add caller info and stack traces for errors in development
	var options []zap.Option
	if config.Development {
		options = append(options, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		options = append(options, zap.AddCaller())
	}

	logger := zap.New(core, options...)
	
	return &zapLogger{logger: logger}, nil
}

// NewDefaultLogger creates a logger with sensible defaults for development
func NewDefaultLogger() Logger {
	config := LoggerConfig{
		Level:       "info",
		Format:      "console",
		Output:      "stdout",
		Development: true,
	}
	
	logger, err := NewLogger(config)
	if err != nil {
		// Fallback to basic zap logger
		fallback, _ := zap.NewDevelopment()
		return &zapLogger{logger: fallback}
	}
	
	return logger
}

// Debug logs a debug message with optional fields
func (l *zapLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Debug(msg, fields...)
}

// Info logs an info message with optional fields
func (l *zapLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Info(msg, fields...)
}

// Warn logs a warning message with optional fields
func (l *zapLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Warn(msg, fields...)
}

// Error logs an error message with error and optional fields
func (l *zapLogger) Error(msg string, err error, fields ...zap.Field) {
	allFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}
	allFields = append(allFields, fields...)
	l.logger.Error(msg, allFields...)
}

// Fatal logs a fatal message with error and optional fields, then calls os.Exit(1)
func (l *zapLogger) Fatal(msg string, err error, fields ...zap.Field) {
	allFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}
	allFields = append(allFields, fields...)
	l.logger.Fatal(msg, allFields...)
}

// With creates a child logger with additional fields
func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// parseLogLevel converts string level to zapcore.Level
func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

// LoggerFields provides common field constructors for structured logging
type LoggerFields struct{}

// Fields provides convenient field constructors
var Fields LoggerFields

// String creates a string field
func (LoggerFields) String(key, value string) zap.Field {
	return zap.String(key, value)
}

// Int creates an int field
func (LoggerFields) Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Int64 creates an int64 field
func (LoggerFields) Int64(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

// Float64 creates a float64 field
func (LoggerFields) Float64(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

// Bool creates a bool field
func (LoggerFields) Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

// Duration creates a duration field
func (LoggerFields) Duration(key string, value interface{}) zap.Field {
	switch v := value.(type) {
	case int64:
		return zap.Duration(key, time.Duration(v))
	case time.Duration:
		return zap.Duration(key, v)
	default:
		return zap.String(key, fmt.Sprintf("%v", value))
	}
}

// Error creates an error field
func (LoggerFields) Error(err error) zap.Field {
	return zap.Error(err)
}

// Any creates a field with any value type
func (LoggerFields) Any(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

// Scenario creates fields identifying a run.
func (LoggerFields) Scenario(name string, concurrency int) []zap.Field {
	return []zap.Field{
		zap.String("scenario", name),
		zap.Int("concurrency", concurrency),
	}
}

// Controller creates fields for a controller's decision.
func (LoggerFields) Controller(kind string, goalTPS uint32) []zap.Field {
	return []zap.Field{
		zap.String("controller", kind),
		zap.Uint32("goal_tps", goalTPS),
	}
}

// Sample creates fields for a single sampler tick.
func (LoggerFields) Sample(tps, errorRate float64, stable bool) []zap.Field {
	return []zap.Field{
		zap.Float64("tps", tps),
		zap.Float64("error_rate", errorRate),
		zap.Bool("stable", stable),
	}
}

// Latency creates fields for latency quantiles.
func (LoggerFields) Latency(p50, p90, p99 float64) []zap.Field {
	return []zap.Field{
		zap.Float64("latency_p50_ns", p50),
		zap.Float64("latency_p90_ns", p90),
		zap.Float64("latency_p99_ns", p99),
	}
}
