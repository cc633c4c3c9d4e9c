package knowledge

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidChunking is returned when the overlap is not smaller than the
// chunk size, which would make the split loop never advance.
var ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")

// Split cuts text into overlapping chunks of at most chunkSize characters.
// Chunk boundaries prefer a sentence terminator past the chunk midpoint,
// then a word boundary, then a hard cut. Adjacent chunks share the trailing
// overlap characters so context carries across the cut. Deterministic for
// identical inputs.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidChunking
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, nil
		}
		return []string{trimmed}, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end < len(runes) {
			if cut := lastIndexRune(runes, start, end, '.'); cut > start+chunkSize/2 {
				end = cut + 1
			} else if cut := lastIndexRune(runes, start, end, ' '); cut > start+chunkSize/2 {
				end = cut
			}
		} else {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end < len(runes) {
			start = end - overlap
		} else {
			start = end
		}
	}
	return chunks, nil
}

// EstimateTokens approximates token count as one token per four characters.
// Used as a rough cost signal only, never for truncation.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// lastIndexRune returns the largest i in [start, end) with runes[i] == target,
// or -1 when absent.
func lastIndexRune(runes []rune, start, end int, target rune) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
