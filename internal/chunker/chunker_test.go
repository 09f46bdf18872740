package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct undoes the overlap: the first segment plus every later
// segment minus its shared prefix.
func reconstruct(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		b.WriteString(string(runes[overlap:]))
	}
	return b.String()
}

func TestSplitShortTextSingleSegment(t *testing.T) {
	s := New(1000, 200)

	text := "a short note"
	chunks := s.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	s := New(1000, 200)
	assert.Empty(t, s.Split(""))
}

func TestSplitRoundTrip(t *testing.T) {
	texts := map[string]string{
		"shorter than chunk": strings.Repeat("x", 50),
		"exactly chunk size": strings.Repeat("y", 100),
		"uniform long":       strings.Repeat("z", 1234),
		"paragraphs": strings.Repeat(
			"First paragraph with some sentences. It keeps going for a while.\n\n"+
				"Second paragraph is here. More words follow it. The end of it.\n\n", 10),
		"unicode": strings.Repeat("héllo wörld. ", 100),
	}

	s := New(100, 20)
	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			chunks := s.Split(text)
			require.NotEmpty(t, chunks)
			for i, chunk := range chunks {
				assert.NotEmpty(t, chunk, "chunk %d must not be empty", i)
				assert.LessOrEqual(t, len([]rune(chunk)), 100, "chunk %d exceeds the size limit", i)
			}
			assert.Equal(t, text, reconstruct(chunks, 20))
		})
	}
}

func TestSplitExactOverlap(t *testing.T) {
	// 2400 uniform characters, no natural boundaries: three hard cuts
	// sharing exactly 200 characters.
	text := strings.Repeat("a", 2400)
	s := New(1000, 200)

	chunks := s.Split(text)
	require.Len(t, chunks, 3)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 1000, "chunk %d too long", i)
	}
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-200:]
		head := chunks[i+1][:200]
		assert.Equal(t, tail, head, "chunks %d and %d must share 200 characters", i, i+1)
	}
	assert.Equal(t, text, reconstruct(chunks, 200))
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	// A paragraph break sits inside the window; the cut should land
	// right after it instead of at the hard limit.
	text := strings.Repeat("w", 50) + "\n\n" + strings.Repeat("v", 200)
	s := New(100, 10)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "first chunk should end at the paragraph break, got %q", chunks[0])
	assert.Equal(t, text, reconstruct(chunks, 10))
}

func TestNewClampsBadParameters(t *testing.T) {
	s := New(0, -5)
	assert.Equal(t, DefaultChunkSize, s.size)
	assert.Equal(t, 0, s.overlap)

	s = New(10, 10)
	assert.Less(t, s.overlap, s.size)
}
