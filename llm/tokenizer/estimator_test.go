package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatorTokenizer_CountTokens(t *testing.T) {
	est := NewEstimatorTokenizer("generic", 0)

	count, err := est.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = est.CountTokens(strings.Repeat("a", 400))
	require.NoError(t, err)
	assert.Equal(t, 100, count, "ASCII estimates at ~4 chars per token")

	// CJK text weighs heavier than ASCII of the same length.
	ascii, _ := est.CountTokens(strings.Repeat("a", 30))
	cjk, _ := est.CountTokens(strings.Repeat("中", 30))
	assert.Greater(t, cjk, ascii)
}

func TestEstimatorTokenizer_Defaults(t *testing.T) {
	est := NewEstimatorTokenizer("generic", 0)
	assert.Equal(t, 4096, est.MaxTokens())
	assert.Equal(t, "estimator", est.Name())

	count, err := est.CountTokens("x")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "non-empty text estimates at least one token")
}

func TestForModel_UnknownFallsBackToEstimator(t *testing.T) {
	tok := ForModel("completely-unknown-model")
	require.NotNil(t, tok)
}

func TestNewTiktokenTokenizer_PrefixMatch(t *testing.T) {
	tok, err := NewTiktokenTokenizer("gpt-4o-2024-08-06")
	require.NoError(t, err)
	assert.Equal(t, 128000, tok.MaxTokens())
	assert.Equal(t, "tiktoken[o200k_base]", tok.Name())
}
