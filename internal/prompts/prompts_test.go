package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSinglePrompt(t *testing.T) {
	t.Run("Should load the summarize prompt with its variables", func(t *testing.T) {
		p, err := GetSinglePrompt(Summarize)
		require.NoError(t, err)
		assert.Contains(t, p, "{title}")
		assert.Contains(t, p, "{source}")
	})
	t.Run("Should report unknown prompts", func(t *testing.T) {
		_, err := GetSinglePrompt("nope")
		assert.ErrorIs(t, err, ErrPromptNotFound)
	})
}
