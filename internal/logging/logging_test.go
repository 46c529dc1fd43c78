package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{LevelError, slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr", func(t *testing.T) {
		logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: "stderr"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.NoError(t, logger.Close())
	})

	t.Run("file output creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "portprobe.log")
		logger, err := New(Config{Level: LevelInfo, Format: FormatJSON, Output: path})
		require.NoError(t, err)

		logger.Info("scan started", "ports", 10)
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"scan started"`)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(logFilePerm), info.Mode().Perm())
	})
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: LevelDebug, Format: FormatJSON})

	logger.WithScanID("abc").WithComponent("engine").InfoScan("scan completed", "127.0.0.1", "open", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scan completed", entry["msg"])
	assert.Equal(t, "abc", entry["scan_id"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "127.0.0.1", entry["target"])
	assert.EqualValues(t, 2, entry["open"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: LevelWarn, Format: FormatText})

	logger.DebugProbe("probe finished", 80)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.ErrorScan("resolution failed", "nope.invalid", errors.New("no such host"))
	out := buf.String()
	assert.Contains(t, out, "resolution failed")
	assert.Contains(t, out, "target=nope.invalid")
	assert.Contains(t, out, `error="no such host"`)
}

func TestDebugProbe(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: LevelDebug, Format: FormatText})

	logger.DebugProbe("probe finished", 8080, "state", "open")
	assert.Contains(t, buf.String(), "port=8080")
	assert.Contains(t, buf.String(), "state=open")
}

func TestSetAndGetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(NewWithWriter(&buf, Config{Level: LevelDebug, Format: FormatText}))

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	InfoScan("scan", "10.0.0.1")
	ErrorScan("failed", "10.0.0.1", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message", "target=10.0.0.1", "error=boom"} {
		assert.Contains(t, out, want)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	assert.NoError(t, logger.Close())
}

func TestConcurrentLogging(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
	)
	logger := NewWithWriter(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	}), Config{Level: LevelDebug, Format: FormatText})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			logger.DebugProbe("probe finished", port)
		}(i + 1)
	}
	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "probe finished"))
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
