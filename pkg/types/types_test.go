package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Names(t *testing.T) {
	doc := Document{Index: 3, OriginalName: "report.pdf"}

	assert.Equal(t, "3_report.pdf", doc.FileName())
	assert.Equal(t, "3_report.pdf.png", doc.ThumbnailName())
	assert.Equal(t, "7_report.pdf", doc.WithIndex(7).FileName())
	assert.Equal(t, 3, doc.Index, "WithIndex must not mutate the receiver")
}

func TestParseDocumentName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantIndex int
		wantOrig  string
	}{
		{"simple", "1_a.pdf", true, 1, "a.pdf"},
		{"upper case extension", "12_Scan.PDF", true, 12, "Scan.PDF"},
		{"underscore in original", "2_my_file.pdf", true, 2, "my_file.pdf"},
		{"thumbnail", "1_a.pdf.png", false, 0, ""},
		{"no separator", "a.pdf", false, 0, ""},
		{"zero index", "0_a.pdf", false, 0, ""},
		{"leading zero", "01_a.pdf", false, 0, ""},
		{"negative index", "-1_a.pdf", false, 0, ""},
		{"non numeric index", "x_a.pdf", false, 0, ""},
		{"extension only", "1_.pdf", false, 0, ""},
		{"empty name", "1_", false, 0, ""},
		{"temp file", ".reorder-abc_1_a.pdf", false, 0, ""},
		{"wrong type", "1_a.txt", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, ok := ParseDocumentName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantIndex, doc.Index)
				assert.Equal(t, tt.wantOrig, doc.OriginalName)
				assert.Equal(t, tt.input, doc.FileName())
			}
		})
	}
}

func TestIsThumbnailName(t *testing.T) {
	assert.True(t, IsThumbnailName("1_a.pdf.png"))
	assert.False(t, IsThumbnailName("1_a.pdf"))
	assert.False(t, IsThumbnailName("picture.png"))
}

func TestIndices(t *testing.T) {
	docs := []Document{{Index: 1}, {Index: 2}, {Index: 3}}
	assert.Equal(t, []int{1, 2, 3}, Indices(docs))
	assert.Empty(t, Indices(nil))
}
