// control/logger_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logiface.Level{
		"trace":   logiface.LevelTrace,
		"DEBUG":   logiface.LevelDebug,
		"info":    logiface.LevelInformational,
		"":        logiface.LevelInformational,
		"warn":    logiface.LevelWarning,
		"warning": logiface.LevelWarning,
		"error":   logiface.LevelError,
		"err":     logiface.LevelError,
		"off":     logiface.LevelDisabled,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, "info")
	require.NoError(t, err)

	l.Info().Int("fd", 7).Str("peer", "127.0.0.1:4000").Log("new incoming connection")
	l.Debug().Int("fd", 7).Log("bytes read")
	l.Warning().Err(errors.New("broken pipe")).Log("connection dropped")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2, "debug is filtered at info")

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "new incoming connection", first["msg"])
	assert.Equal(t, float64(7), first["fd"])
	assert.Equal(t, "127.0.0.1:4000", first["peer"])
	assert.Contains(t, first, "time")

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "broken pipe", second["err"])
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info().Int("fd", 1).Log("nothing")
	})
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "noisy")
	assert.Error(t, err)
}
