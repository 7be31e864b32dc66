package reading

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gen2brain/go-fitz"
	"github.com/sunshineplan/pdf"
)

// Rendering at 3x the 72 DPI PDF base recovers QR codes printed as
// vector or text content rather than embedded bitmaps.
const renderDPI = 216

// documentSource provides the candidate images and text of one invoice
// document. Implemented by pdfDocument; faked in tests.
type documentSource interface {
	EmbeddedImages() ([]image.Image, error)
	RenderedPages() ([]image.Image, error)
	Text() (string, error)
	Close() error
}

// pdfDocument reads one PDF invoice. The underlying handle is scoped to
// a single Read call and released unconditionally on every exit path.
type pdfDocument struct {
	data []byte
	doc  *fitz.Document
}

// openPDF validates the document structure. Failure here is the only
// document-level error: a PDF that cannot be opened at all.
func openPDF(data []byte) (*pdfDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	return &pdfDocument{data: data, doc: doc}, nil
}

// EmbeddedImages enumerates the raster images embedded in the document,
// in page order then in-page order. A walk failure on an otherwise
// renderable document yields no images rather than an error, so the
// rendered-page fallback still runs.
func (d *pdfDocument) EmbeddedImages() (images []image.Image, err error) {
	defer func() {
		// The embedded-object walker panics on some exotic but
		// renderable PDFs; treat those as carrying no images.
		if r := recover(); r != nil {
			images = nil
			err = nil
		}
	}()

	images, err = pdf.DecodeAll(bytes.NewReader(d.data))
	if err != nil {
		return nil, nil
	}
	return images, nil
}

// RenderedPages rasterizes every page at a fixed magnification
func (d *pdfDocument) RenderedPages() ([]image.Image, error) {
	images := make([]image.Image, 0, d.doc.NumPage())
	for i := 0; i < d.doc.NumPage(); i++ {
		img, err := d.doc.ImageDPI(i, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// Text converts the document to a markdown representation preserving
// reading order well enough for pattern matching
func (d *pdfDocument) Text() (string, error) {
	var html strings.Builder
	for i := 0; i < d.doc.NumPage(); i++ {
		pageHTML, err := d.doc.HTML(i, false)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i+1, err)
		}
		html.WriteString(pageHTML)
		html.WriteString("\n")
	}

	text, err := htmltomarkdown.ConvertString(html.String())
	if err != nil {
		return "", fmt.Errorf("converting document text: %w", err)
	}
	return text, nil
}

func (d *pdfDocument) Close() error {
	return d.doc.Close()
}
