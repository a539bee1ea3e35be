package render

import (
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a config directory under $HOME
	api.DisableConfigDir()
}

// PDFMerger concatenates PDF documents with pdfcpu
type PDFMerger struct{}

// NewPDFMerger creates a merger
func NewPDFMerger() *PDFMerger {
	return &PDFMerger{}
}

// newConfiguration returns a fresh configuration per call; pdfcpu mutates it
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge writes all pages of inputs, in order, as one document to w
func (m *PDFMerger) Merge(ctx context.Context, inputs []io.ReadSeeker, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch len(inputs) {
	case 0:
		return fmt.Errorf("no input documents provided")
	case 1:
		// A single document is passed through untouched
		if _, err := inputs[0].Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind document: %w", err)
		}
		if _, err := io.Copy(w, inputs[0]); err != nil {
			return fmt.Errorf("copy document: %w", err)
		}
		return nil
	}

	if err := api.MergeRaw(inputs, w, false, newConfiguration()); err != nil {
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return nil
}

// PageCount returns the number of pages of a document
func (m *PDFMerger) PageCount(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}
