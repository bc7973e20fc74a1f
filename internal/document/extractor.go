// Package document extracts text from uploaded PDF documents using pdfcpu.
package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoUsableText is returned when a PDF yields no extractable text at all.
var ErrNoUsableText = fmt.Errorf("no usable text in document")

// pageMarker prefixes each page's text in the assembled output. Pages are
// 1-indexed.
const pageMarker = "--- Page "

// pageReader returns the per-page text of a PDF, in page order. Isolated so
// the assembly logic can be tested without fixture PDFs.
type pageReader func(pdf []byte) ([]string, error)

// Extractor turns PDF bytes into page-marked plain text.
type Extractor struct {
	log       *slog.Logger
	tempDir   string
	readPages pageReader
}

// NewExtractor creates a PDF text extractor.
func NewExtractor(log *slog.Logger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "quantbrief-pdf")
	os.MkdirAll(tempDir, 0o755)

	e := &Extractor{log: log, tempDir: tempDir}
	e.readPages = e.pdfcpuPages
	return e
}

// ExtractText extracts text from all pages and assembles it with a
// "--- Page N ---" marker before each page that has text. Returns
// ErrNoUsableText when the document contains no text at all.
func (e *Extractor) ExtractText(pdf []byte) (string, error) {
	pages, err := e.readPages(pdf)
	if err != nil {
		return "", fmt.Errorf("extract pdf: %w", err)
	}

	var b strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s%d ---\n", pageMarker, i+1)
		b.WriteString(page)
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoUsableText
	}
	return text, nil
}

// CountPages reports how many pages contributed text to an extracted
// document, by counting page markers.
func CountPages(text string) int {
	return strings.Count(text, pageMarker)
}

// tempPaths provisions a unique PDF file and page output directory for one
// extraction. Concurrent extractions must never share paths.
func (e *Extractor) tempPaths(pdf []byte) (tempFile, outDir string, cleanup func(), err error) {
	tmp, err := os.CreateTemp(e.tempDir, "extract_*.pdf")
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp pdf: %w", err)
	}
	tempFile = tmp.Name()

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		os.Remove(tempFile)
		return "", "", nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempFile)
		return "", "", nil, fmt.Errorf("write temp pdf: %w", err)
	}

	outDir, err = os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		os.Remove(tempFile)
		return "", "", nil, fmt.Errorf("create page dir: %w", err)
	}

	cleanup = func() {
		os.Remove(tempFile)
		os.RemoveAll(outDir)
	}
	return tempFile, outDir, cleanup, nil
}

// pdfcpuPages extracts per-page text with pdfcpu. pdfcpu has no direct text
// extraction API, so the PDF goes through a temp file and per-page content
// files.
func (e *Extractor) pdfcpuPages(pdf []byte) ([]string, error) {
	tempFile, outDir, cleanup, err := e.tempPaths(pdf)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("read pdf context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("extract pdf content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			e.log.Warn("skipping unreadable page file", "file", file.Name(), "error", err)
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	pages := make([]string, pageCount)
	for i := range pages {
		pages[i] = pageTexts[i+1]
	}
	return pages, nil
}
