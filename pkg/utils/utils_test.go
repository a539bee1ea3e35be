package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces collapse", "My   cool  file.pdf", "My_cool_file.pdf"},
		{"path traversal", "../../etc/passwd", "etc_passwd"},
		{"windows path", `C:\Users\me\scan.pdf`, "C_Users_me_scan.pdf"},
		{"accents folded", "résumé.pdf", "resume.pdf"},
		{"non latin dropped", "文件.pdf", "pdf"},
		{"punctuation dropped", "a&b(1).pdf", "ab1.pdf"},
		{"leading dots trimmed", "...hidden.pdf", "hidden.pdf"},
		{"device name", "con.pdf", "_con.pdf"},
		{"empty", "", ""},
		{"only symbols", "$$$", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.input))
		})
	}
}

func TestIsAllowedDocument(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"a.pdf", true},
		{"A.PDF", true},
		{"archive.tar.pdf", true},
		{"a.pdf.exe", false},
		{"pdf", false},
		{"a.png", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedDocument(tt.filename))
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{
			name:  "bytes",
			bytes: 512,
			want:  "512 B",
		},
		{
			name:  "kilobytes",
			bytes: 1536, // 1.5 KB
			want:  "1.5 KB",
		},
		{
			name:  "megabytes",
			bytes: 1048576, // 1 MB
			want:  "1.0 MB",
		},
		{
			name:  "zero bytes",
			bytes: 0,
			want:  "0 B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes() = %v, want %v", got, tt.want)
			}
		})
	}
}
