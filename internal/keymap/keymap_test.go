package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 344, c.ToggleKey)
	assert.Empty(t, c.Shortcuts)
}

func TestBind_ReplacesPreviousBindingForScript(t *testing.T) {
	c := Default().Bind(71, "miner")
	c = c.Bind(72, "miner")

	assert.Equal(t, map[int]string{72: "miner"}, c.Shortcuts)
	k, ok := c.KeyFor("miner")
	assert.True(t, ok)
	assert.Equal(t, 72, k)
}

func TestBind_TakesOverKey(t *testing.T) {
	c := Default().Bind(71, "miner").Bind(71, "bridge")

	id, ok := c.Lookup(71)
	assert.True(t, ok)
	assert.Equal(t, "bridge", id)
	_, ok = c.KeyFor("miner")
	assert.False(t, ok)
}

func TestBind_DoesNotMutateReceiver(t *testing.T) {
	base := Default().Bind(71, "miner")
	_ = base.Bind(80, "farmer")
	_ = base.Unbind("miner")

	assert.Equal(t, map[int]string{71: "miner"}, base.Shortcuts)
}

func TestUnbind(t *testing.T) {
	c := Default().Bind(71, "miner").Bind(80, "farmer").Unbind("miner")
	assert.Equal(t, map[int]string{80: "farmer"}, c.Shortcuts)
	assert.Equal(t, []int{80}, c.Keys())

	// unknown ids are a no-op
	assert.Equal(t, c.Shortcuts, c.Unbind("ghost").Shortcuts)
}

func TestKeyFor_LowestKeyWins(t *testing.T) {
	c := RuntimeConfig{ToggleKey: 344, Shortcuts: map[int]string{90: "x", 70: "x"}}
	k, ok := c.KeyFor("x")
	assert.True(t, ok)
	assert.Equal(t, 70, k)
}

func TestClone_NilShortcuts(t *testing.T) {
	c := RuntimeConfig{ToggleKey: 1}.Clone()
	assert.NotNil(t, c.Shortcuts)
	c = RuntimeConfig{}.Bind(5, "a")
	assert.Equal(t, "a", c.Shortcuts[5])
}

func TestWithToggleKey(t *testing.T) {
	base := Default()
	c := base.WithToggleKey(KeyF1 + 7)
	assert.Equal(t, 297, c.ToggleKey)
	assert.Equal(t, 344, base.ToggleKey)
}

func TestFromUIKey(t *testing.T) {
	for in, want := range map[int]int{
		13: 257, 27: 256, 8: 259, 46: 261,
		39: 262, 37: 263, 40: 264, 38: 265,
		16: 340, 17: 341, 18: 342, 32: 32, 9: 258,
		'0': '0', '9': '9', 'A': 'A', 'G': 'G', 'Z': 'Z',
		112: 112, 500: 500,
	} {
		assert.Equal(t, want, FromUIKey(in), "ui key %d", in)
	}
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "R-Shift", KeyName(344))
	assert.Equal(t, "G", KeyName('G'))
	assert.Equal(t, "7", KeyName('7'))
	assert.Equal(t, "F5", KeyName(294))
	assert.Equal(t, "Key 999", KeyName(999))
}

func TestParseKey(t *testing.T) {
	for in, want := range map[string]int{
		"g":       'G',
		"G":       'G',
		"5":       '5',
		"71":      71,
		"344":     344,
		"r-shift": 344,
		"Enter":   257,
		"f12":     301,
	} {
		got, err := ParseKey(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}

	for _, in := range []string{"", "-3", "f13", "hyper", "??"} {
		_, err := ParseKey(in)
		assert.Error(t, err, in)
	}
}

func TestKeyName_RoundTrip(t *testing.T) {
	for code := range keyNames {
		got, err := ParseKey(KeyName(code))
		if assert.NoError(t, err) {
			assert.Equal(t, code, got)
		}
	}
}
