package render

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer renders the first page of a PDF file to an image
type Rasterizer interface {
	RenderFirstPage(ctx context.Context, pdfPath string) (image.Image, error)
}

// FitzRasterizer rasterizes pages with MuPDF
type FitzRasterizer struct {
	dpi float64
}

// NewFitzRasterizer creates a rasterizer rendering at the given resolution
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = 72
	}
	return &FitzRasterizer{dpi: dpi}
}

// RenderFirstPage opens the document and renders page one
func (f *FitzRasterizer) RenderFirstPage(ctx context.Context, pdfPath string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	img, err := doc.ImageDPI(0, f.dpi)
	if err != nil {
		return nil, fmt.Errorf("render first page: %w", err)
	}
	return img, nil
}
