// Package tokenizer provides token counting for prompt budget checks,
// backed by tiktoken for OpenAI-family encodings with a CJK-aware
// estimator fallback.
package tokenizer

// Tokenizer counts tokens for a single model family.
type Tokenizer interface {
	// CountTokens returns the token count for the given text.
	CountTokens(text string) (int, error)

	// MaxTokens returns the model's maximum context length.
	MaxTokens() int

	// Name returns the tokenizer's identifier.
	Name() string
}

// ForModel returns a tiktoken tokenizer for the model when an encoding is
// known, otherwise the generic estimator.
func ForModel(model string) Tokenizer {
	t, err := NewTiktokenTokenizer(model)
	if err != nil {
		return NewEstimatorTokenizer(model, 0)
	}
	return t
}
