package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgo/sage/internal/pkg/errs"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestTextPlainFile(t *testing.T) {
	content := "Hello, world.\nSecond line."
	path := writeTemp(t, "note.txt", []byte(content))

	got, err := Text(path, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestTextMissingFile(t *testing.T) {
	_, err := Text(filepath.Join(t.TempDir(), "nope.txt"), "text/plain")
	require.Error(t, err)

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeExtraction, e.Code)
}

func TestTextInvalidUTF8(t *testing.T) {
	path := writeTemp(t, "binary.txt", []byte{0xff, 0xfe, 0x00, 0x80})

	_, err := Text(path, "text/plain")
	require.Error(t, err)

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeExtraction, e.Code)
}

func TestTextCorruptPDF(t *testing.T) {
	path := writeTemp(t, "broken.pdf", []byte("this is not a pdf"))

	_, err := Text(path, "application/pdf")
	require.Error(t, err)

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.CodeExtraction, e.Code)
}
