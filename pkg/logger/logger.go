// Package logger it is a simple encapsulation of the go.uber.org/zap package
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger log writer
var Logger = zap.NewNop()

// SugarLogger simple logger
var SugarLogger = Logger.Sugar()

// helper reports the caller of the package-level functions below.
var helper = Logger

// InitLogger Initialize logger
func InitLogger(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	Logger = l
	SugarLogger = Logger.Sugar()
	helper = Logger.WithOptions(zap.AddCallerSkip(1))
	return nil
}

// New builds a logger from cfg without touching the package globals.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := new(zapcore.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	encoder := getEncoder()
	syncWriter := getLogWriter(cfg)

	core := zapcore.NewCore(encoder, syncWriter, level)
	return zap.New(core, zap.AddCaller()), nil
}

// Sync flushes any buffered entries.
func Sync() error {
	return Logger.Sync()
}

func getEncoder() zapcore.Encoder {
	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.TimeKey = "time"
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encodeConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	encodeConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encodeConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewJSONEncoder(encodeConfig)
}

func getLogWriter(cfg *Config) zapcore.WriteSyncer {
	var writers []zapcore.WriteSyncer
	if cfg.FileName != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FileName,
			MaxAge:     cfg.MaxAge,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}))
	}
	if cfg.Console || len(writers) == 0 {
		writers = append(writers, zapcore.Lock(os.Stdout))
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// Debug logs a message at DebugLevel. The message includes any fields passed
// at the log site, as well as any fields accumulated on the logger.
func Debug(msg string, fields ...zap.Field) {
	helper.Debug(msg, fields...)
}

// Info logs a message at InfoLevel. The message includes any fields passed
// at the log site, as well as any fields accumulated on the logger.
func Info(msg string, fields ...zap.Field) {
	helper.Info(msg, fields...)
}

// Warn logs a message at WarnLevel. The message includes any fields passed
// at the log site, as well as any fields accumulated on the logger.
func Warn(msg string, fields ...zap.Field) {
	helper.Warn(msg, fields...)
}

// Error logs a message at ErrorLevel. The message includes any fields passed
// at the log site, as well as any fields accumulated on the logger.
func Error(msg string, fields ...zap.Field) {
	helper.Error(msg, fields...)
}

// With creates a child logger and adds structured context to it. Fields added
// to the child don't affect the parent, and vice versa.
func With(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}
