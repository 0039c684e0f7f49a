package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{999, "0s"},
		{45_000, "45s"},
		{60_000, "1m 0s"},
		{90_000, "1m 30s"},
		{3_600_000, "1h 0m"},
		{3_700_000, "1h 1m"},
		{86_400_000, "1d 0h 0m"},
		{90_000_000, "1d 1h 0m"},
		{-5, "0s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(time.Duration(tt.ms)*time.Millisecond), "ms=%d", tt.ms)
	}
}

func TestRandomInt(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := RandomInt(6)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 6)
	}
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString(nil, "b"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hello w...", Truncate("hello world!", 10))
	assert.Equal(t, "hé", Truncate("héllo", 2))
}
