package chunking

import "strings"

// Splitter cuts extracted curriculum text into chunks of roughly ChunkSize
// runes. Splits prefer sentence boundaries so a pedagogy tip is not cut in
// half; Overlap carries trailing context into the next chunk.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = splitPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// splitPoint walks back from the hard limit looking for a sentence end, then
// for any whitespace. Danda covers Hindi curriculum text.
func splitPoint(runes []rune, start, limit int) int {
	minEnd := start + (limit-start)/2

	for i := limit - 1; i > minEnd; i-- {
		switch runes[i] {
		case '.', '!', '?', '।':
			return i + 1
		}
	}
	for i := limit - 1; i > minEnd; i-- {
		if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
			return i + 1
		}
	}
	return limit
}
