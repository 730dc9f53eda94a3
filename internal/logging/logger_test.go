package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"warning", LevelWarn},
		{"Error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestInitJSON(t *testing.T) {
	t.Cleanup(func() { Close() })

	var buf bytes.Buffer
	assert.NoError(t, Init(Config{Level: LevelInfo, Format: "json", Writer: &buf}))

	WithInput("engine", "q1").Info("parsed", "ok", true)
	GetLogger().Debug("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 1, len(lines))

	var entry map[string]any
	assert.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "parsed", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "q1", entry["input"])
	assert.Equal(t, true, entry["ok"])
}

func TestInitFile(t *testing.T) {
	t.Cleanup(func() { Close() })

	path := filepath.Join(t.TempDir(), "logs", "sqlcheck.log")
	assert.NoError(t, Init(Config{Level: LevelWarn, OutputPath: path}))

	WithComponent("cli").Warn("careful")
	assert.NoError(t, Close())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "msg=careful")
	assert.Contains(t, string(data), "component=cli")
}

func TestInitUnknownFormat(t *testing.T) {
	t.Cleanup(func() { Close() })
	assert.Error(t, Init(Config{Format: "xml"}))
}

func TestGetLoggerDefault(t *testing.T) {
	assert.NoError(t, Close())
	assert.NotZero(t, GetLogger())
}

func TestGetLoggerConcurrentClose(t *testing.T) {
	t.Cleanup(func() { Close() })

	var wg sync.WaitGroup
	var missing, failed atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if GetLogger() == nil {
					missing.Add(1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if Close() != nil {
					failed.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), missing.Load())
	assert.Equal(t, int32(0), failed.Load())
}
