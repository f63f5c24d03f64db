package uid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("round trips through IsValid", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			id, err := Generate()
			require.NoError(t, err)
			assert.True(t, IsValid(id), "got %q", id)
		}
	})

	t.Run("never contains ambiguous characters", func(t *testing.T) {
		for i := 0; i < 500; i++ {
			id, err := Generate()
			require.NoError(t, err)
			assert.False(t, strings.ContainsAny(id, "01ILO"), "got %q", id)
		}
	})

	t.Run("draw reaches the whole alphabet", func(t *testing.T) {
		seen := make(map[rune]bool)
		for i := 0; i < 500; i++ {
			id, err := Generate()
			require.NoError(t, err)
			for _, c := range id {
				if c != '-' {
					seen[c] = true
				}
			}
		}
		// 5000 uniform draws over 31 characters; a character that never
		// shows up means a skewed draw.
		for _, c := range "ABCDEFGHJKMNPQRSTUVWXYZ23456789" {
			assert.True(t, seen[c], "character %q never drawn", c)
		}
	})
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("F3K8Q-2JQ9W"))

	invalid := []string{
		"",
		"F3K8Q2JQ9W",    // missing hyphen
		"F3K8-Q2JQ9W",   // hyphen misplaced
		"f3k8q-2jq9w",   // lowercase
		"F3K0Q-2JQ9W",   // ambiguous zero
		"F3KIQ-2JQ9W",   // ambiguous I
		"F3K8Q-2JQ9",    // short
		"F3K8Q-2JQ9WX",  // long
		" F3K8Q-2JQ9W ", // whitespace
	}
	for _, id := range invalid {
		assert.False(t, IsValid(id), "%q should be invalid", id)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "F3K8Q-2JQ9W", Normalize("f3k8q-2jq9w"))
	assert.Equal(t, "F3K8Q-2JQ9W", Normalize("  F3K8Q-2JQ9W\n"))
	assert.Equal(t, "F3K8Q-2JQ9W", Normalize("f3k8q - 2jq9w"))
}
