package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl, "пустой уровень - INFO")

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("world", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("сектор %d без промежутков", 7)

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [world] сектор 7 без промежутков")
	assert.True(t, l.Enabled(ERROR))
	assert.False(t, l.Enabled(DEBUG))
}

func TestManager_ReturnsSameLogger(t *testing.T) {
	lm := GetLoggerManager()

	a := lm.MustGetLogger("test-component")
	b := lm.MustGetLogger("test-component")
	assert.Same(t, a, b, "менеджер должен кешировать логгеры")
	assert.Contains(t, lm.Components(), "test-component")
}

func TestManager_ComponentOverrides(t *testing.T) {
	lm := GetLoggerManager()
	defer lm.SetGlobalLevel(INFO)

	require.NoError(t, lm.Configure("warn", map[string]string{"test-sight": "debug"}))

	sight := lm.MustGetLogger("test-sight")
	other := lm.MustGetLogger("test-other")
	assert.True(t, sight.Enabled(DEBUG), "переопределение действует и на новые логгеры")
	assert.False(t, other.Enabled(INFO))

	lm.SetGlobalLevel(ERROR)
	assert.True(t, sight.Enabled(DEBUG), "общий уровень не трогает переопределение")
	assert.False(t, other.Enabled(WARN))

	assert.Error(t, lm.Configure("info", map[string]string{"world": "loud"}))
}

func TestFatal_Exits(t *testing.T) {
	code := 0
	prevExit := exit
	exit = func(c int) { code = c }
	defer func() { exit = prevExit }()

	var buf bytes.Buffer
	prev := defaultLogger
	defaultLogger = NewWriterLogger("default", &buf, INFO)
	defer func() { defaultLogger = prev }()

	Fatal("нарушен контракт: %s", "double set")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "нарушен контракт: double set")
}
