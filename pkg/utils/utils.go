package utils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lgulliver/pdfbinder/pkg/types"
	"golang.org/x/text/unicode/norm"
)

// windowsDeviceNames are refused as file names even on POSIX hosts so that
// workspaces can be copied around safely
var windowsDeviceNames = map[string]bool{
	"CON": true, "AUX": true, "COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "PRN": true, "NUL": true,
}

// SanitizeFilename reduces a user supplied file name to a safe single path
// element made of ASCII letters, digits, '_', '-' and '.'. Accented letters are
// folded to ASCII, path separators become spaces and runs of whitespace become
// a single underscore. Leading and trailing dots and underscores are removed.
// The result may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var folded strings.Builder
	for _, r := range name {
		if r > unicode.MaxASCII {
			continue
		}
		folded.WriteRune(r)
	}

	cleaned := strings.NewReplacer("/", " ", "\\", " ").Replace(folded.String())
	cleaned = strings.Join(strings.Fields(cleaned), "_")

	var safe strings.Builder
	for _, r := range cleaned {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			safe.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			safe.WriteRune(r)
		}
	}

	result := strings.Trim(safe.String(), "._")
	if base, _, _ := strings.Cut(result, "."); windowsDeviceNames[strings.ToUpper(base)] {
		result = "_" + result
	}
	return result
}

// IsAllowedDocument checks the extension of a file name against the accepted type
func IsAllowedDocument(filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		return false
	}
	return types.HasDocumentExtension(filename[dot:])
}

// FormatBytes formats byte size in human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	suffixes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}
