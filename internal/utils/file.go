package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	textExtensions   = []string{".txt", ".md", ".markdown", ".text"}
	binaryExtensions = []string{".pdf", ".docx"}
)

// ValidateInputFile checks that path names a readable regular file
func ValidateInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("cannot access file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", path, err)
	}
	return f.Close()
}

// ValidateOutputFile makes sure the parent directory of an output path
// exists. An empty path means stdout.
func ValidateOutputFile(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetFileExtension returns the lowercase extension including the dot
func GetFileExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsTextFile reports whether name has a plain text extension
func IsTextFile(name string) bool {
	return slices.Contains(textExtensions, GetFileExtension(name))
}

// IsSupportedResume reports whether name has an extension the extractor reads
func IsSupportedResume(name string) bool {
	return IsTextFile(name) || slices.Contains(binaryExtensions, GetFileExtension(name))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
