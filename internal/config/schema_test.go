package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_LookupAndSections(t *testing.T) {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: "a", Type: TypeInt, Default: "1"},
		{Key: "b", Section: "overlay", Type: TypeBool},
		{Key: "a", Default: "2"},
	})

	assert.Equal(t, "2", s.Lookup("", "a").Default)
	assert.NotNil(t, s.Lookup("overlay", "b"))
	assert.Nil(t, s.Lookup("", "b"))
	assert.True(t, s.IsKnown("overlay", "a"))
	assert.False(t, s.IsKnown("", "b"))
	assert.Equal(t, []string{"overlay"}, s.Sections())
}

func TestValidateType(t *testing.T) {
	for _, tc := range []struct {
		typ   OptionType
		value string
		ok    bool
	}{
		{TypeString, "anything", true},
		{TypePath, "~/scripts", true},
		{TypeBool, "yes", true},
		{TypeBool, "maybe", false},
		{TypeInt, "12", true},
		{TypeInt, "1.5", false},
		{TypeDuration, "20ms", true},
		{TypeDuration, "20", false},
		{OptionType("weird"), "x", false},
	} {
		err := validateType(tc.typ, tc.value)
		if tc.ok {
			assert.NoError(t, err, "%s %q", tc.typ, tc.value)
		} else {
			assert.Error(t, err, "%s %q", tc.typ, tc.value)
		}
	}
}

func TestFormatHelp(t *testing.T) {
	help := DefaultSchema().FormatHelp()
	assert.True(t, strings.HasPrefix(help, "Global Options:\n"))
	assert.Contains(t, help, KeyScriptsDir)
	assert.Contains(t, help, "env: BLOCKYTK_SCRIPTS_DIR")
	assert.Contains(t, help, "default: 20ms")
}

func TestDefaultSchema_DefaultsValidate(t *testing.T) {
	for _, o := range DefaultSchema().Options("") {
		if o.Default == "" {
			continue
		}
		assert.NoError(t, validateType(o.Type, o.Default), o.Key)
	}
}
