package datastream

import "unicode/utf8"

// SplitChunks partitions text into contiguous pieces of at most size
// characters (code points). Concatenating the result yields text exactly.
// size must be positive; an empty text yields no chunks.
func SplitChunks(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if text == "" {
		return nil, nil
	}
	chunks := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, count := 0, 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:]), nil
}
