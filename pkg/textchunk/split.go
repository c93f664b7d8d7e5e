package textchunk

// Span is one overlapping window over the source text. Text is always
// the exact substring source[Start:End].
type Span struct {
	Start int
	End   int
	Text  string
}

// Chunk is the persisted form of a span together with its embedding,
// stored as JSON on the owning record.
type Chunk struct {
	Index     int       `json:"chunkIndex"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// Split cuts text into overlapping windows of roughly size bytes,
// advancing by size-overlap each step. The right edge of every window
// except the last is pushed forward to the next whitespace so words
// are never cut in half.
func Split(text string, size, overlap int) []Span {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	stride := size - overlap

	var spans []Span
	for start := 0; start < len(text); start += stride {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			for end < len(text) && !isSpace(text[end]) {
				end++
			}
		}
		spans = append(spans, Span{Start: start, End: end, Text: text[start:end]})
		if end == len(text) {
			break
		}
	}
	return spans
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
