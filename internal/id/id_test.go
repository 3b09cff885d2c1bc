package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("txn")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	// The prefixes actually used across the codebase.
	for _, prefix := range []string{"txn", "book", "user", "grant", "ntf", "token"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))

			// NanoID default length is 21 characters.
			nanoidPart := strings.TrimPrefix(id, prefix+"-")
			assert.Len(t, nanoidPart, 21)

			for _, c := range nanoidPart {
				valid := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
					(c >= '0' && c <= '9') || c == '_' || c == '-'
				assert.True(t, valid, "character %q in %s", c, id)
			}
		})
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("seed")
	assert.True(t, strings.HasPrefix(id, "seed-"))
}
