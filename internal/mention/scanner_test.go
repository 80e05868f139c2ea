package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain lowercase", "launch", "launch"},
		{"mixed case", "MarketingPlan", "marketingplan"},
		{"strips marker", "@Calendar", "calendar"},
		{"strips punctuation", "Q3-Plan!", "q3plan"},
		{"strips spaces", "Marketing Plan", "marketingplan"},
		{"digits kept", "Sprint42", "sprint42"},
		{"only punctuation", "---", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKey(tt.input))
		})
	}
}

func TestScan(t *testing.T) {
	t.Run("extracts mentions with offsets", func(t *testing.T) {
		res := Scan("check @MarketingPlan before @calendar closes", 5)
		require.Len(t, res.Mentions, 2)
		assert.False(t, res.Truncated)
		assert.Zero(t, res.Dropped)

		assert.Equal(t, "@MarketingPlan", res.Mentions[0].Raw)
		assert.Equal(t, 6, res.Mentions[0].Offset)
		assert.Equal(t, "marketingplan", res.Mentions[0].Key)

		assert.Equal(t, "@calendar", res.Mentions[1].Raw)
		assert.Equal(t, 28, res.Mentions[1].Offset)
		assert.Equal(t, "calendar", res.Mentions[1].Key)
	})

	t.Run("mention stops at punctuation and space", func(t *testing.T) {
		res := Scan("ping @alice, then @bob-2 and @carol jones", 10)
		require.Len(t, res.Mentions, 3)
		assert.Equal(t, "alice", res.Mentions[0].Key)
		assert.Equal(t, "bob", res.Mentions[1].Key)
		assert.Equal(t, "carol", res.Mentions[2].Key)
	})

	t.Run("bare marker is not a mention", func(t *testing.T) {
		res := Scan("an @ by itself and @! too", 5)
		assert.Empty(t, res.Mentions)
	})

	t.Run("cap enforcement", func(t *testing.T) {
		raw := "@a @b @c @d @e @f @g @h"
		res := Scan(raw, 5)
		require.Len(t, res.Mentions, 5)
		assert.True(t, res.Truncated)
		assert.Equal(t, 3, res.Dropped)
		assert.Equal(t, "e", res.Mentions[4].Key)
	})

	t.Run("cap not reached leaves truncated false", func(t *testing.T) {
		res := Scan("@a @b", 5)
		assert.Len(t, res.Mentions, 2)
		assert.False(t, res.Truncated)
	})

	t.Run("non-positive max uses default", func(t *testing.T) {
		raw := "@a @b @c @d @e @f"
		res := Scan(raw, 0)
		assert.Len(t, res.Mentions, DefaultMaxMentions)
		assert.Equal(t, 1, res.Dropped)
	})

	t.Run("empty text is a no-op", func(t *testing.T) {
		res := Scan("", 5)
		assert.Empty(t, res.Mentions)
		assert.False(t, res.Truncated)
	})
}
