package chunker

import "fmt"

// Splitter cuts a document into overlapping chunks of approximately
// ChunkSize characters. It is a pure function of its input: identical text
// always produces identical chunks, in document order.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter validates the chunking parameters once at construction so a
// misconfiguration fails at startup, not inside a worker.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
	}
	if chunkSize <= overlap {
		return nil, fmt.Errorf("chunk size (%d) must be greater than overlap (%d)", chunkSize, overlap)
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}, nil
}

// Split slices text into chunks with Overlap characters shared between
// neighbors. This is a simple character-based splitter; strict slicing is
// safer than losing data to a word-boundary heuristic.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := s.ChunkSize - s.Overlap

	for i := 0; i < totalLen; i += step {
		end := i + s.ChunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
