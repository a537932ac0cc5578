package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugEnabled_False(t *testing.T) {
	res := DebugEnabled()
	assert.False(t, res, "debug should be false")
}

func TestDebugEnabled_True(t *testing.T) {
	t.Setenv("EFATURA_DEBUG", "true")

	res := DebugEnabled()
	assert.True(t, res, "debug should be true")
}

func TestDebugEnabled_Garbage(t *testing.T) {
	t.Setenv("EFATURA_DEBUG", "yes please")

	assert.False(t, DebugEnabled())
}

func TestGetEnvOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", GetEnvOrDefault("EFATURA_NO_SUCH_KEY", "fallback"))

	t.Setenv("EFATURA_SOME_KEY", "value")
	assert.Equal(t, "value", GetEnvOrDefault("EFATURA_SOME_KEY", "fallback"))
}
