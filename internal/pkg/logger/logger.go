package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/exp/zapslog"
)

var (
	globalZap  *zap.Logger
	globalSlog *slog.Logger
)

// Init builds the production zap logger at the given level and installs a
// zapslog bridge as the slog default, so both zap-typed clients and
// slog-style service logging share one core.
func Init(levelStr string) *zap.Logger {
	level := parseLevel(levelStr)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		level,
	)

	globalZap = zap.New(core, zap.AddCaller())
	globalSlog = slog.New(zapslog.NewHandler(globalZap.Core(), zapslog.WithCaller(false)))
	slog.SetDefault(globalSlog)
	return globalZap
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		slog.Warn("Invalid log level string, defaulting to INFO", "input", levelStr)
		return zapcore.InfoLevel
	}
}

// Zap returns the shared zap logger, initializing with defaults if needed.
func Zap() *zap.Logger {
	ensureInitialized()
	return globalZap
}

func ensureInitialized() {
	if globalZap == nil {
		Init("INFO")
	}
}

// Debug logs a message at DebugLevel.
func Debug(msg string, args ...any) {
	ensureInitialized()
	globalSlog.Debug(msg, args...)
}

// Info logs a message at InfoLevel.
func Info(msg string, args ...any) {
	ensureInitialized()
	globalSlog.Info(msg, args...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, args ...any) {
	ensureInitialized()
	globalSlog.Warn(msg, args...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, args ...any) {
	ensureInitialized()
	globalSlog.Error(msg, args...)
}

// Fatal logs a message at ErrorLevel then exits.
func Fatal(msg string, args ...any) {
	ensureInitialized()
	globalSlog.Error(msg, args...)
	_ = globalZap.Sync()
	os.Exit(1)
}
