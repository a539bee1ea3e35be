// Package render holds the PDF collaborators of the workspace manager:
// first-page thumbnails rendered with MuPDF (go-fitz) and multi-document
// merging with pdfcpu.
package render
