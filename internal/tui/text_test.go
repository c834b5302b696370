package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Strip Miner", truncate("Strip Miner", 20))
	assert.Equal(t, "Strip…", truncate("Strip Miner", 6))
	assert.Equal(t, "⛏…", truncate("⛏⛏⛏⛏", 3))
	assert.Equal(t, "", truncate("abc", 0))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
}

func TestScrollbar(t *testing.T) {
	top, size := newScrollbar(5, 10, 0).thumbSpan()
	assert.Equal(t, 0, top)
	assert.Equal(t, 10, size)

	top, size = newScrollbar(100, 10, 0).thumbSpan()
	assert.Equal(t, 0, top)
	assert.Equal(t, 1, size)

	top, _ = newScrollbar(100, 10, 90).thumbSpan()
	assert.Equal(t, 9, top)

	top, size = newScrollbar(20, 10, 5).thumbSpan()
	assert.Equal(t, 5, size)
	assert.Equal(t, 2, top)

	assert.Len(t, strings.Split(newScrollbar(20, 10, 5).View(), "\n"), 10)
	assert.Empty(t, newScrollbar(20, 0, 0).View())
}
