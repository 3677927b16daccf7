// Package token provides approximate token counting for chunk sizing.
package token

import "strings"

// Estimator approximates the number of model tokens in a text.
// Estimates are heuristic, not tokenizer-exact; callers must treat
// the returned count as a sizing hint only.
type Estimator interface {
	// Estimate returns the approximate token count for text.
	Estimate(text string) int
}

// WordEstimator approximates tokens as word count scaled by 4/3.
// Roughly matches subword tokenizers on European languages, where one
// word averages 1.3 tokens.
type WordEstimator struct{}

// Estimate returns ceil(words * 4 / 3) for the given text.
func (WordEstimator) Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words*4 + 2) / 3
}
