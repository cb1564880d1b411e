package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger(level, format)
	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("loaded repository") },
			contains: []string{"loaded repository"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func() { Debug("rules built") },
			contains: []string{"rules built", "level=DEBUG"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func() { Debug("rules built") },
			excludes: []string{"rules built"},
		},
		{
			name:     "warn log with fields",
			level:    "warn",
			logFn:    func() { Warn("recommends dropped", Fields{"package": "A", "count": 2}) },
			contains: []string{"recommends dropped", "level=WARN", "package=A", "count=2"},
		},
		{
			name:     "success log",
			level:    "info",
			logFn:    func() { Success("transaction ready") },
			contains: []string{"transaction ready", "status=success"},
		},
		{
			name:     "formatted debug with fields",
			level:    "debug",
			logFn:    func() { DebugfWithFields(Fields{"problems": 1}, "pass %d", 3) },
			contains: []string{"pass 3", "problems=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	out := captureOutput(t, "info", FormatJSON, func() {
		Info("solve finished", Fields{"repo": "base", "steps": 4, "ok": true})
	})
	assert.Contains(t, out, `"msg":"solve finished"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"repo":"base"`)
	assert.Contains(t, out, `"steps":4`)
	assert.Contains(t, out, `"ok":true`)
}

func TestSetOutputFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger("debug", FormatText)
	Debug("first")
	assert.Contains(t, buf.String(), "level=DEBUG")

	buf.Reset()
	SetOutputFormat(FormatJSON)
	Debug("second")
	assert.Contains(t, buf.String(), `"msg":"second"`)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestGetLogger_InitializesIfNil(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		assert.NotNil(t, GetLogger())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))

	InitLogger("warn", FormatText)
	assert.False(t, Enabled(slog.LevelInfo))
	assert.True(t, Enabled(slog.LevelError))
}

func TestMergeFields(t *testing.T) {
	attrs := mergeFields(Fields{"key1": "value1"}, Fields{"key1": "new", "key2": 123})
	result := make(map[string]interface{})
	for i := 0; i < len(attrs); i += 2 {
		result[attrs[i].(string)] = attrs[i+1]
	}
	assert.Equal(t, map[string]interface{}{"key1": "new", "key2": 123}, result)
}
