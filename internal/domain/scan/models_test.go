package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity(" HIGH ")
	require.NoError(t, err)
	require.Equal(t, SeverityHigh, s)

	s, err = ParseSeverity("low")
	require.NoError(t, err)
	require.Equal(t, SeverityLow, s)

	_, err = ParseSeverity("critical")
	require.Error(t, err)
}

func TestMatchResultMatched(t *testing.T) {
	require.True(t, MatchResult{Key: "tomato-healthy", Confidence: MatchFuzzy}.Matched())
	require.False(t, MatchResult{Confidence: MatchNone}.Matched())
}
