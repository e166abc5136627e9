package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLastLabelsTruncatesToN(t *testing.T) {
	require.Equal(t, "example.com", LastLabels("a.b.example.com", 2))
	require.Equal(t, "a.b.example.com", LastLabels("a.b.example.com", 10))
}

func TestMatchesHostPattern(t *testing.T) {
	require.True(t, MatchesHostPattern("example.com", "example.com"))
	require.False(t, MatchesHostPattern("example.com", "other.com"))
	require.True(t, MatchesHostPattern("a.example.com", "*.example.com"))
	require.True(t, MatchesHostPattern("example.com", "*.example.com"))
	require.False(t, MatchesHostPattern("other.org", "*.example.com"))
}
