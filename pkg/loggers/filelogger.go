package loggers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func FormatTimestampedLogFileName(basename string) string {
	return fmt.Sprintf("%s-%s.log", basename, time.Now().UTC().Format("20060102T150405Z"))
}

// NewFileLogger creates a JSON logger writing to a rotated file under logDir.
func NewFileLogger(name string, logDir string) (*zap.Logger, string, error) {
	if _, err := os.Stat(logDir); err != nil {
		if err = os.MkdirAll(logDir, 0755); err != nil {
			return nil, "", fmt.Errorf("failed to create log path '%s': %w", logDir, err)
		}
	}

	logFilePath := filepath.Join(logDir, FormatTimestampedLogFileName(name))

	f, err := os.Create(logFilePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file '%s': %w", logFilePath, err)
	}
	f.Close()

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     60, // days
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		zap.DebugLevel,
	)

	return zap.New(core), logFilePath, nil
}

// Tee returns a logger writing to both loggers.
func Tee(a *zap.Logger, b *zap.Logger) *zap.Logger {
	return zap.New(zapcore.NewTee(a.Core(), b.Core()))
}
