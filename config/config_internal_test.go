package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvUsesFallback(t *testing.T) {
	t.Setenv("TEST_ENV", "")
	assert.Equal(t, "fallback", getEnv("TEST_ENV", "fallback"))

	t.Setenv("TEST_ENV", "value")
	assert.Equal(t, "value", getEnv("TEST_ENV", "fallback"))
}

func TestGetEnvBoolFallback(t *testing.T) {
	t.Setenv("TEST_BOOL", "")
	assert.True(t, getEnvBool("TEST_BOOL", true))

	t.Setenv("TEST_BOOL", "not-bool")
	assert.False(t, getEnvBool("TEST_BOOL", false))

	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvBool("TEST_BOOL", false))
}

func TestParseCSVTrimsValues(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, parseCSV("a, b,, ,c"))
}

func TestParseHeaders(t *testing.T) {
	assert.Empty(t, parseHeaders(""))
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseHeaders("a=1, b=x=y, =skip, nokey"))
}
