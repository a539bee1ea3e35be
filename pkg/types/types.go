package types

import (
	"strconv"
	"strings"
	"time"
)

// DocumentExtension is the only file type a workspace accepts
const DocumentExtension = ".pdf"

// ThumbnailExtension is appended to a document file name to form its thumbnail name
const ThumbnailExtension = ".png"

// Workspace is the handle for one session's directory
type Workspace struct {
	SessionID string `json:"session_id"`
	Dir       string `json:"-"`
}

// Document is one stored file and its position in the merge order
type Document struct {
	Index        int       `json:"index"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"modified_at"`
	HasThumbnail bool      `json:"has_thumbnail"`
}

// FileName returns the on-disk name "{index}_{originalName}"
func (d Document) FileName() string {
	return strconv.Itoa(d.Index) + "_" + d.OriginalName
}

// ThumbnailName returns the on-disk name of the document's preview image
func (d Document) ThumbnailName() string {
	return d.FileName() + ThumbnailExtension
}

// WithIndex returns a copy of the document carrying a different index
func (d Document) WithIndex(index int) Document {
	d.Index = index
	return d
}

// ParseDocumentName splits a stored file name into its index and original name.
// Only names of the form "{positive index}_{name}.pdf" are accepted.
func ParseDocumentName(name string) (Document, bool) {
	prefix, rest, found := strings.Cut(name, "_")
	if !found || prefix == "" || rest == "" {
		return Document{}, false
	}
	if prefix[0] == '0' {
		return Document{}, false
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return Document{}, false
		}
	}
	index, err := strconv.Atoi(prefix)
	if err != nil || index < 1 {
		return Document{}, false
	}
	if !HasDocumentExtension(rest) || len(rest) == len(DocumentExtension) {
		return Document{}, false
	}
	return Document{Index: index, OriginalName: rest}, true
}

// IsThumbnailName reports whether name is a thumbnail of a parseable document
func IsThumbnailName(name string) bool {
	base, found := strings.CutSuffix(name, ThumbnailExtension)
	if !found {
		return false
	}
	_, ok := ParseDocumentName(base)
	return ok
}

// HasDocumentExtension reports whether name ends in .pdf, ignoring case
func HasDocumentExtension(name string) bool {
	return len(name) >= len(DocumentExtension) &&
		strings.EqualFold(name[len(name)-len(DocumentExtension):], DocumentExtension)
}

// Indices returns the indices of docs in listing order
func Indices(docs []Document) []int {
	out := make([]int, len(docs))
	for i, d := range docs {
		out[i] = d.Index
	}
	return out
}

// DocumentView is the template/JSON projection of a listed document
type DocumentView struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	Size         string `json:"size"`
	ThumbnailURL string `json:"thumbnail_url"`
	DeleteURL    string `json:"delete_url"`
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
