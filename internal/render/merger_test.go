package render

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/lgulliver/pdfbinder/internal/testpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageWidths(t *testing.T, data []byte) []float64 {
	t.Helper()

	dims, err := api.PageDims(bytes.NewReader(data), newConfiguration())
	require.NoError(t, err)

	widths := make([]float64, len(dims))
	for i, d := range dims {
		widths[i] = d.Width
	}
	return widths
}

func TestPDFMerger_MergeKeepsInputOrder(t *testing.T) {
	a := testpdf.Build(testpdf.Size{Width: 100, Height: 100})
	b := testpdf.Build(testpdf.Size{Width: 200, Height: 200}, testpdf.Size{Width: 210, Height: 200})
	c := testpdf.Build(testpdf.Size{Width: 300, Height: 300})

	merger := NewPDFMerger()
	var out bytes.Buffer
	err := merger.Merge(context.Background(), []io.ReadSeeker{
		bytes.NewReader(a), bytes.NewReader(b), bytes.NewReader(c),
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, []float64{100, 200, 210, 300}, pageWidths(t, out.Bytes()))

	count, err := merger.PageCount(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPDFMerger_SingleDocumentPassesThrough(t *testing.T) {
	doc := testpdf.Build(testpdf.Size{Width: 100, Height: 100})
	rs := bytes.NewReader(doc)
	_, err := rs.Seek(10, io.SeekStart)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, NewPDFMerger().Merge(context.Background(), []io.ReadSeeker{rs}, &out))
	assert.Equal(t, doc, out.Bytes())
}

func TestPDFMerger_NoInputs(t *testing.T) {
	var out bytes.Buffer
	err := NewPDFMerger().Merge(context.Background(), nil, &out)
	assert.Error(t, err)
}

func TestPDFMerger_PageCountRejectsJunk(t *testing.T) {
	_, err := NewPDFMerger().PageCount(bytes.NewReader([]byte("not a pdf at all")))
	assert.Error(t, err)
}
