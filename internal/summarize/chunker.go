package summarize

import "strings"

// charsPerToken is the empirical chars-per-token ratio used to estimate
// token counts without running a real tokenizer. It is a safety margin,
// not a guarantee: the generation model's tokenizer is never consulted
// at this layer, so the ratio is chosen conservatively.
const charsPerToken = 1.3

// estimateTokens estimates the token count of accumulated text from its
// character length.
func estimateTokens(chars int) float64 {
	return float64(chars) / charsPerToken
}

// ChunkWords splits text into word-aligned chunks whose estimated token
// count stays within maxChunkSize.
//
// Words are never split across chunks, no chunk is empty, and joining the
// chunks with single spaces reconstructs the whitespace-normalized input.
// A single word that alone exceeds the budget still gets its own chunk
// rather than being dropped.
func ChunkWords(text string, maxChunkSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	chars := 0

	for _, word := range words {
		next := chars + len(word)
		if len(current) > 0 {
			next++ // joining space
		}

		// Close the current chunk before a word that would push the
		// estimate over budget.
		if len(current) > 0 && estimateTokens(next) > float64(maxChunkSize) {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			next = len(word)
		}

		current = append(current, word)
		chars = next
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// WordCount counts whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
