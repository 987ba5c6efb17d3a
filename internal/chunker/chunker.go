// Package chunker splits handbook text into bounded-size chunks for
// embedding and retrieval.
//
// Paragraphs (blank-line separated) are the semantic unit. A paragraph at or
// under the size limit becomes a single chunk; longer paragraphs are packed
// word by word into successive chunks. A single word longer than the limit
// is never split and forms its own chunk.
package chunker

import "strings"

// DefaultChunkSize is the chunk size used when callers pass a non-positive
// size. Matches the embedding model's comfortable input length.
const DefaultChunkSize = 500

// Chunk splits text into an ordered sequence of chunks of at most size
// bytes, except for oversized single words and whole paragraphs already
// under the limit. Empty or whitespace-only input yields no chunks.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	for _, para := range splitParagraphs(text) {
		if len(para) <= size {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, packWords(strings.Fields(para), size)...)
	}
	return chunks
}

// splitParagraphs splits on blank lines, trims each candidate and drops
// empty ones. Order follows the document.
func splitParagraphs(text string) []string {
	// Normalize line endings so CRLF documents split the same way.
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paras []string
	for _, candidate := range strings.Split(text, "\n\n") {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" {
			paras = append(paras, candidate)
		}
	}
	return paras
}

// packWords greedily fills chunks with whitespace-delimited words. A word
// that would push the current chunk past size starts a new chunk.
func packWords(words []string, size int) []string {
	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range words {
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= size:
			current.WriteByte(' ')
			current.WriteString(word)
		default:
			flush()
			current.WriteString(word)
		}
	}
	flush()

	return chunks
}
