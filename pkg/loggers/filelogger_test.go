package loggers_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spiceai/plasmagym/pkg/loggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatTimestampedLogFileName(t *testing.T) {
	timeNow := time.Now().UTC().Format("20060102T150405Z")
	expectedName := fmt.Sprintf("%s-%s.log", "basename", timeNow)

	actualName := loggers.FormatTimestampedLogFileName("basename")

	if expectedName != actualName {
		t.Errorf("Expected: %s, got: %s", expectedName, actualName)
	}
}

func TestNewFileLogger(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "log")

	logger, path, err := loggers.NewFileLogger("plasmagym", logDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "plasmagym-"))

	logger.Info("episode finished", zap.Int("episode", 0))
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"episode finished"`)
	assert.Contains(t, string(content), `"episode":0`)
}
