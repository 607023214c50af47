// Package pdf extracts plain text from PDF manuscripts so their citation
// markers can be scanned.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// magic is the header every PDF file starts with.
var magic = []byte("%PDF-")

// ErrNoText is returned when no page of a PDF yields any text, as with
// scanned images.
var ErrNoText = errors.New("no extractable text in PDF")

// IsPDF reports whether path looks like a PDF, by extension or by header.
func IsPDF(path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return HasMagic(head)
}

// HasMagic reports whether data starts with the PDF header.
func HasMagic(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// ExtractText returns the text of the first maxPages pages of the PDF at
// path (maxPages <= 0 reads every page).
func ExtractText(path string, maxPages int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	text, err := ExtractTextReader(f, info.Size(), maxPages)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// ExtractTextReader is ExtractText for a PDF held in r, such as a buffered
// stdin.
func ExtractTextReader(r io.ReaderAt, size int64, maxPages int) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}

	pages := pageTexts(doc, maxPages)
	if len(pages) == 0 {
		return "", ErrNoText
	}
	// A blank line between pages keeps a marker at the foot of one page
	// and one at the head of the next in separate paragraphs.
	return strings.Join(pages, "\n\n") + "\n", nil
}

// pageTexts returns the trimmed, non-empty text of each page read.
// Pages the library cannot decode are skipped.
func pageTexts(doc *pdf.Reader, maxPages int) []string {
	n := doc.NumPage()
	if maxPages > 0 && maxPages < n {
		n = maxPages
	}

	texts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
