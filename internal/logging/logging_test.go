package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	} {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogger_RingKeepsNewest(t *testing.T) {
	l := New(Options{BufferSize: 3})
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		l.Info(msg)
	}

	recent := l.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].Message)
	assert.Equal(t, "e", recent[2].Message)
	assert.Equal(t, uint64(5), l.Seq())

	last := l.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, "e", last[0].Message)
}

func TestLogger_LevelFilter(t *testing.T) {
	l := New(Options{Level: slog.LevelWarn})
	l.Info("hidden")
	l.Warn("shown")

	recent := l.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "shown", recent[0].Message)
}

func TestLogger_AttrsAndGroups(t *testing.T) {
	l := New(Options{})
	l.With("script", "miner").WithGroup("run").Info("started", "id", 7)

	recent := l.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, map[string]string{"script": "miner", "run.id": "7"}, recent[0].Attrs)
	assert.Contains(t, recent[0].String(), "INF started run.id=7 script=miner")
}

func TestLogger_TeeToFile(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{File: &buf})
	l.Error("load failed", "path", "scripts/bad.js")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "load failed", record["msg"])
	assert.Equal(t, "scripts/bad.js", record["path"])
	assert.Equal(t, "ERROR", record["level"])

	assert.Len(t, l.Recent(0), 1)
}

func TestLogger_SearchAndClear(t *testing.T) {
	l := New(Options{})
	l.Info("Starting miner...")
	l.Info("echo", "message", "Busy.")
	l.Info("unrelated")

	assert.Len(t, l.Search("MINER"), 1)
	assert.Len(t, l.Search("busy"), 1)
	assert.Empty(t, l.Search("nothing"))

	l.Clear()
	assert.Empty(t, l.Recent(0))
}

func TestEntry_StringLevels(t *testing.T) {
	for level, tag := range map[slog.Level]string{
		slog.LevelDebug: "DBG",
		slog.LevelInfo:  "INF",
		slog.LevelWarn:  "WRN",
		slog.LevelError: "ERR",
	} {
		e := Entry{Level: level, Message: "m"}
		assert.True(t, strings.Contains(e.String(), tag+" m"), e.String())
	}
}
