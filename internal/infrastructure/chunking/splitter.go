package chunking

import (
	"fmt"
	"strings"

	"github.com/regtechlab/docrag/internal/core/domain"
)

// Splitter cuts text into fixed-size rune windows with a configurable
// overlap between consecutive windows. Sizes are measured in runes so
// multi-byte scripts do not get cut mid-character.
type Splitter struct {
	chunkSize int
	overlap   int
}

func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "chunking.NewSplitter",
			fmt.Errorf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "chunking.NewSplitter",
			fmt.Errorf("overlap must not be negative, got %d", overlap))
	}
	if overlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "chunking.NewSplitter",
			fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize))
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

func (s *Splitter) Split(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{trimmed}, nil
	}

	// Pure slide: start advances by step until it passes the end, even
	// when an earlier window already reached it. A trailing window that
	// is a suffix of its predecessor is kept on purpose, so the chunk
	// count stays a pure function of (len, size, overlap).
	step := s.chunkSize - s.overlap
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out, nil
}
