package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateStr(t *testing.T) {
	t.Run("Should keep short strings", func(t *testing.T) {
		assert.Equal(t, "hello", TruncateStr("hello", 5))
	})
	t.Run("Should cut long strings", func(t *testing.T) {
		assert.Equal(t, "hel...", TruncateStr("hello", 3))
	})
	t.Run("Should not split multi-byte runes", func(t *testing.T) {
		assert.Equal(t, "héé...", TruncateStr("héééé", 3))
		assert.Equal(t, "héé", TruncateStr("héé", 3))
	})
}
