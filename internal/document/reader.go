// Package document extracts plain text from uploaded financial PDFs.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoText means the file parsed but held no extractable text, which is
	// typical of scanned documents.
	ErrNoText = errors.New("document contains no extractable text")
	ErrRead   = errors.New("document could not be read")
)

// Reader turns a file on disk into normalized plain text.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// NewReader selects an extractor by name: "native" (default) or "pdftotext".
func NewReader(kind string, logger *slog.Logger) (Reader, error) {
	switch kind {
	case "", "native":
		return &PDFReader{logger: logger}, nil
	case "pdftotext":
		return NewPdftotextReader("", logger), nil
	default:
		return nil, fmt.Errorf("unknown PDF extractor %q: must be native or pdftotext", kind)
	}
}

// PDFReader parses PDFs in-process.
type PDFReader struct {
	logger *slog.Logger
}

func (r *PDFReader) Read(ctx context.Context, path string) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrRead, path, rec)
		}
	}()

	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	defer f.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			r.log().Warn("skipping unreadable page", "path", path, "page", i, "error", err)
			continue
		}
		pages = append(pages, content)
	}

	text = Normalize(pages...)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}
	r.log().Debug("pdf text extracted", "path", path, "pages", doc.NumPage(), "chars", len(text))
	return text, nil
}

func (r *PDFReader) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Normalize trims each page, drops runs of blank lines and joins pages
// with a newline.
func Normalize(pages ...string) string {
	var out []string
	for _, page := range pages {
		blank := false
		for _, line := range strings.Split(strings.TrimSpace(page), "\n") {
			line = strings.TrimRight(line, " \t\r\f")
			if line == "" {
				if blank {
					continue
				}
				blank = true
			} else {
				blank = false
			}
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
