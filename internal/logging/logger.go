package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar names the level when none is passed to Initialize.
const LogLevelEnvVar = "WIFIPANEL_LOG_LEVEL"

var logger = zap.NewNop()

// Initialize installs the package logger at level ("debug", "info", "warn" or
// "error"). An empty level falls back to LogLevelEnvVar; when both are empty
// logging stays silent.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l, err := consoleConfig(lvl).Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// consoleConfig writes human-readable lines to stderr, keeping stdout free
// for command output.
func consoleConfig(lvl zapcore.Level) zap.Config {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "console",
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// SetLogger replaces the package logger; nil restores the silent one.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// GetLogger returns the package logger.
func GetLogger() *zap.Logger {
	return logger
}

func Debug(msg string, fields ...zap.Field) { logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { logger.Error(msg, fields...) }

// LogConnection records a websocket or simulator client event.
func LogConnection(remoteAddr, event string) {
	logger.Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogHTTPRequest records an incoming request before it is handled.
func LogHTTPRequest(remoteAddr, method, path string) {
	logger.Debug("HTTP request received",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
	)
}

// LogHTTPResponse records a served request.
func LogHTTPResponse(remoteAddr, method, path string, statusCode int, elapsed time.Duration) {
	logger.Info("HTTP response sent",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
		zap.Duration("elapsed", elapsed),
	)
}

// LogAPICall records an outgoing device API call. Failures log at warn.
func LogAPICall(method, url string, statusCode int, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status_code", statusCode),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		logger.Warn("Device API call failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Debug("Device API call", fields...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = logger.Sync()
}
