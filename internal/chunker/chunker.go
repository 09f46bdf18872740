// Package chunker splits extracted text into overlapping segments sized
// for embedding.
package chunker

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Boundary preference, strongest first: paragraph break, line break,
// sentence end, word break.
var separators = []string{"\n\n", "\n", ". ", " "}

type Splitter struct {
	size    int
	overlap int
}

// New returns a splitter producing segments of at most size runes where
// consecutive segments share exactly overlap runes. An overlap that does
// not leave room for forward progress is clamped.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split cuts text into ordered segments. Cuts prefer natural boundaries
// within the window before falling back to a hard cut at the size limit.
// Text no longer than the chunk size comes back as a single segment.
// Empty input yields no segments.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Move the cut back to a natural boundary, as long as the
		// segment still extends past the shared overlap region.
		if cut := boundaryCut(runes, start+s.overlap+1, end); cut > 0 {
			end = cut
		}

		chunks = append(chunks, string(runes[start:end]))
		start = end - s.overlap
	}

	return chunks
}

// boundaryCut returns the rightmost position in (lo, hi] that ends a
// separator, or 0 when no separator occurs in that window. The separator
// stays with the earlier segment.
func boundaryCut(runes []rune, lo, hi int) int {
	for _, sep := range separators {
		sepRunes := []rune(sep)
		for i := hi - len(sepRunes); i >= lo-1 && i >= 0; i-- {
			if matchAt(runes, sepRunes, i) {
				cut := i + len(sepRunes)
				if cut >= lo && cut <= hi {
					return cut
				}
			}
		}
	}
	return 0
}

func matchAt(runes, sep []rune, pos int) bool {
	if pos+len(sep) > len(runes) {
		return false
	}
	for i := range sep {
		if runes[pos+i] != sep[i] {
			return false
		}
	}
	return true
}
