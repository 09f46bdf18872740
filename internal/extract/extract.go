// Package extract converts uploaded files into plain text.
package extract

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/tgo/sage/internal/pkg/errs"
)

const mimePDF = "application/pdf"

// Text returns the full text content of the file at path. PDF files are
// read page by page in order, with a newline after each page. Everything
// else is read verbatim as UTF-8. Extraction failures are terminal for the
// document: no partial output is usable.
func Text(path, mimeType string) (string, error) {
	if mimeType == mimePDF {
		return pdfText(path)
	}
	return plainText(path)
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Extraction("cannot read file", err)
	}
	if !utf8.Valid(data) {
		return "", errs.Extraction("file is not valid UTF-8 text", nil)
	}
	return string(data), nil
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errs.Extraction("cannot open PDF", err)
	}
	defer f.Close()

	var out strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", errs.Extraction(fmt.Sprintf("cannot read PDF page %d", i), err)
		}
		out.WriteString(text)
		out.WriteString("\n")
	}

	return out.String(), nil
}
